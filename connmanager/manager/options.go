package manager

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/connmanager"
	"github.com/go-gotop/statesync/limiter"
	"github.com/go-gotop/statesync/websocket"
	"github.com/go-gotop/statesync/websocket/gorilla"
)

type Option func(*options)

// WebsocketFactory 每个连接周期构造一个新的底层 websocket
type WebsocketFactory func(conf *websocket.WebsocketConfig) websocket.Websocket

type options struct {
	logger            *log.Helper             // 日志记录器
	bus               broker.Bus              // 事件总线, 可为空
	connLimiter       limiter.Limiter         // 建连限流器
	wsFactory         WebsocketFactory        // websocket 构造器
	backoff           connmanager.Backoff     // 退避参数
	retryPolicy       connmanager.RetryPolicy // 重试策略
	maxAttempts       int                     // 单轮重试次数上限
	maxConn           int                     // 最大连接数
	maxConnDuration   time.Duration           // 最大连接持续时间, 到期主动换连接
	heartbeatInterval time.Duration           // 心跳间隔
	staleTimeout      time.Duration           // 静默窗口, 超过视为死链
	isCheckReConn     bool                    // 是否开启心跳守护
}

func defaultOptions() *options {
	return &options{
		logger: log.NewHelper(log.DefaultLogger),
		wsFactory: func(conf *websocket.WebsocketConfig) websocket.Websocket {
			return gorilla.NewGorillaWebsocket(gorilla.NewGorillaWebSocketConn(), conf)
		},
		backoff: connmanager.Backoff{
			Initial: 500 * time.Millisecond,
			Max:     30 * time.Second,
			Jitter:  0.25,
		},
		retryPolicy:       connmanager.RetryForever,
		maxAttempts:       10,
		maxConn:           100,
		maxConnDuration:   24 * time.Hour,
		heartbeatInterval: 20 * time.Second,
		staleTimeout:      60 * time.Second,
		isCheckReConn:     true,
	}
}

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

func WithConnLimiter(connLimiter limiter.Limiter) Option {
	return func(o *options) {
		o.connLimiter = connLimiter
	}
}

func WithWebsocketFactory(f WebsocketFactory) Option {
	return func(o *options) {
		o.wsFactory = f
	}
}

func WithBackoff(b connmanager.Backoff) Option {
	return func(o *options) {
		o.backoff = b
	}
}

func WithRetryPolicy(p connmanager.RetryPolicy) Option {
	return func(o *options) {
		o.retryPolicy = p
	}
}

func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

func WithMaxConn(maxConn int) Option {
	return func(o *options) {
		o.maxConn = maxConn
	}
}

func WithMaxConnDuration(maxConnDuration time.Duration) Option {
	return func(o *options) {
		o.maxConnDuration = maxConnDuration
	}
}

func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		o.heartbeatInterval = d
	}
}

func WithStaleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.staleTimeout = d
	}
}

func WithCheckReConn(isCheckReConn bool) Option {
	return func(o *options) {
		o.isCheckReConn = isCheckReConn
	}
}
