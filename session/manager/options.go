package manager

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/limiter"
	"github.com/go-gotop/statesync/session"
)

type options struct {
	logger *log.Helper
	// bus 事件总线, 不设置时不发会话事件
	bus broker.Bus
	// store 令牌持久化, 默认仅存进程内
	store session.Store
	// authLimiter 鉴权调用限流
	authLimiter limiter.Limiter
	// refreshBuffer 提前刷新窗口, 过期前该时长触发刷新
	refreshBuffer time.Duration
	// authTimeout 单次鉴权调用超时
	authTimeout time.Duration
	// onFatal 会话致命失效时的回调
	onFatal func(err error)
}

type Option func(*options)

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.NewHelper(logger)
	}
}

func WithBus(bus broker.Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

func WithStore(store session.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithAuthLimiter(l limiter.Limiter) Option {
	return func(o *options) {
		o.authLimiter = l
	}
}

func WithRefreshBuffer(d time.Duration) Option {
	return func(o *options) {
		o.refreshBuffer = d
	}
}

func WithAuthTimeout(d time.Duration) Option {
	return func(o *options) {
		o.authTimeout = d
	}
}

func WithOnFatal(fn func(err error)) Option {
	return func(o *options) {
		o.onFatal = fn
	}
}
