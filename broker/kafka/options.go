package kafka

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/statesync/broker"
)

type Option func(*options)

type options struct {
	addrs        []string           // kafka 地址列表
	topic        string             // 目标主题
	buffer       int                // 总线通道缓冲
	writeTimeout time.Duration      // 单条消息写超时
	types        []broker.EventType // 转发的事件类型, 空为全量
	logger       log.Logger         // 日志记录器
	saslUser     string             // SASL SCRAM 用户名, 空则不鉴权
	saslPass     string             // SASL SCRAM 密码
}

func defaultOptions() *options {
	return &options{
		addrs:        []string{defaultAddr},
		topic:        "statesync.events",
		buffer:       1024,
		writeTimeout: 5 * time.Second,
		logger:       log.DefaultLogger,
	}
}

func WithAddrs(addrs ...string) Option {
	return func(o *options) {
		o.addrs = addrs
	}
}

func WithTopic(topic string) Option {
	return func(o *options) {
		o.topic = topic
	}
}

func WithBuffer(n int) Option {
	return func(o *options) {
		o.buffer = n
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

func WithEventTypes(types ...broker.EventType) Option {
	return func(o *options) {
		o.types = types
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithSASL(user, pass string) Option {
	return func(o *options) {
		o.saslUser = user
		o.saslPass = pass
	}
}
