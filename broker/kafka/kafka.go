package kafka

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/go-gotop/statesync/broker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink 订阅事件总线并把事件转发到 kafka。
// 走通道订阅加后台协程, 不阻塞发布方;
// 消息以 InstanceID 作为 key, 同一账户实例的事件落在同一分区。
type Sink struct {
	opts     *options
	writer   *kafkaGo.Writer
	ch       <-chan *broker.Event
	cancel   func()
	exitChan chan struct{}
	doneChan chan struct{}
}

func NewSink(bus broker.Bus, opts ...Option) (*Sink, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(o.addrs...),
		Topic:                  o.topic,
		Balancer:               &kafkaGo.Hash{},
		RequiredAcks:           kafkaGo.RequireOne,
		AllowAutoTopicCreation: true,
		Logger:                 NewLogger(o.logger),
		ErrorLogger:            NewErrorLogger(o.logger),
	}
	if o.saslUser != "" {
		mechanism, err := scram.Mechanism(scram.SHA512, o.saslUser, o.saslPass)
		if err != nil {
			return nil, fmt.Errorf("sasl mechanism: %w", err)
		}
		w.Transport = &kafkaGo.Transport{SASL: mechanism}
	}

	s := &Sink{
		opts:     o,
		writer:   w,
		exitChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	s.ch, s.cancel = bus.Subscribe(o.buffer, o.types...)
	go s.pump()
	return s, nil
}

func (s *Sink) pump() {
	defer close(s.doneChan)
	helper := NewErrorLogger(s.opts.logger)
	for {
		select {
		case <-s.exitChan:
			return
		case evt := <-s.ch:
			if evt == nil {
				continue
			}
			msg, err := marshalEvent(evt)
			if err != nil {
				helper.Printf("kafka sink: marshal %s: %v", evt.Type, err)
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.writeTimeout)
			if err := s.writer.WriteMessages(ctx, msg); err != nil {
				helper.Printf("kafka sink: write %s: %v", evt.Type, err)
			}
			cancel()
		}
	}
}

// Close 停止转发并关闭底层 writer
func (s *Sink) Close() error {
	s.cancel()
	close(s.exitChan)
	<-s.doneChan
	return s.writer.Close()
}

func marshalEvent(evt *broker.Event) (kafkaGo.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafkaGo.Message{}, err
	}
	return kafkaGo.Message{
		Key:     []byte(evt.InstanceID),
		Value:   value,
		Headers: eventHeaders(evt),
		Time:    time.UnixMilli(evt.Timestamp),
	}, nil
}
