package kafka

import (
	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/go-gotop/statesync/broker"
)

// eventHeaders 将事件元信息放入 kafka 消息头, 便于下游按类型过滤
func eventHeaders(evt *broker.Event) []kafkaGo.Header {
	return []kafkaGo.Header{
		{Key: "event-id", Value: []byte(evt.ID)},
		{Key: "event-type", Value: []byte(evt.Type)},
		{Key: "instance-id", Value: []byte(evt.InstanceID)},
	}
}

func headerMap(h []kafkaGo.Header) map[string]string {
	m := make(map[string]string, len(h))
	for _, v := range h {
		m[v.Key] = string(v.Value)
	}
	return m
}
