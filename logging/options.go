package logging

import (
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

type options struct {
	// writer 标准输出目标
	writer io.Writer
	// service 检索用服务名
	service string
	// rdb 配置后日志同时落 Redis
	rdb *redis.Client
	// ttl Redis 日志条目保留时长
	ttl time.Duration
}

type Option func(*options)

func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

func WithService(name string) Option {
	return func(o *options) {
		o.service = name
	}
}

func WithRedis(rdb *redis.Client) Option {
	return func(o *options) {
		o.rdb = rdb
	}
}

func WithTTL(d time.Duration) Option {
	return func(o *options) {
		o.ttl = d
	}
}
