// Description: 日志装配
// stdout 恒开, 配置 Redis 后条目同时按 JSON 落库供检索, 键带 TTL 自动过期。
package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const redisKeyPrefix = "statesync_log:"

var (
	_ log.Logger = (*Fanout)(nil)
	_ log.Logger = (*RedisSink)(nil)
)

// Entry Redis 侧存储的日志条目
type Entry struct {
	Service   string `json:"service"`
	Level     string `json:"level"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// New 组装进程日志, 注入各管理器的 WithLogger 选项
func New(opts ...Option) log.Logger {
	o := &options{
		writer:  os.Stdout,
		service: "statesync",
		ttl:     10 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(o)
	}
	std := log.NewStdLogger(o.writer)
	if o.rdb == nil {
		return std
	}
	return NewFanout(std, NewRedisSink(o.rdb, o.service, o.ttl))
}

// Fanout 将一条日志依次写入多个 log.Logger, 首个错误即返回
type Fanout struct {
	loggers []log.Logger
}

func NewFanout(loggers ...log.Logger) *Fanout {
	return &Fanout{loggers: loggers}
}

func (f *Fanout) Log(level log.Level, keyvals ...interface{}) error {
	for _, l := range f.loggers {
		if err := l.Log(level, keyvals...); err != nil {
			return err
		}
	}
	return nil
}

// RedisSink 把日志条目写入 Redis
type RedisSink struct {
	rdb     *redis.Client
	service string
	ttl     time.Duration
}

func NewRedisSink(rdb *redis.Client, service string, ttl time.Duration) *RedisSink {
	return &RedisSink{
		rdb:     rdb,
		service: service,
		ttl:     ttl,
	}
}

func (s *RedisSink) Log(level log.Level, keyvals ...interface{}) error {
	now := time.Now().UnixNano()
	entry := &Entry{
		Service:   s.service,
		Level:     levelString(level),
		Timestamp: now,
		Message:   formatMessage(keyvals...),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%d", redisKeyPrefix, now)
	return s.rdb.Set(context.Background(), key, data, s.ttl).Err()
}

func formatMessage(keyvals ...interface{}) string {
	var b strings.Builder
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			fmt.Fprintf(&b, "%v=%v ", keyvals[i], keyvals[i+1])
		} else {
			fmt.Fprintf(&b, "%v=MISSING_VALUE ", keyvals[i])
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func levelString(level log.Level) string {
	switch level {
	case log.LevelDebug:
		return "DEBUG"
	case log.LevelInfo:
		return "INFO"
	case log.LevelWarn:
		return "WARN"
	case log.LevelError:
		return "ERROR"
	case log.LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
