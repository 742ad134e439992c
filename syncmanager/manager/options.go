package manager

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/exchange"
	"github.com/go-gotop/statesync/limiter"
)

type options struct {
	logger *log.Helper
	// bus 事件总线, 不设置时只写缓存不发事件
	bus broker.Bus
	// limiter 快照拉取限流
	limiter limiter.Limiter
	// tracer 对账链路追踪
	tracer trace.Tracer
	// pnlEpsilon 盈亏漂移阈值
	pnlEpsilon decimal.Decimal
	// warnRatio 保证金警戒线
	warnRatio decimal.Decimal
	// criticalRatio 保证金危险线
	criticalRatio decimal.Decimal
	// maxOrderEntries 单实例订单缓存容量
	maxOrderEntries int
	// terminalTTL 终态订单保留时长
	terminalTTL time.Duration
	// sweepInterval 终态清理周期, <=0 关闭
	sweepInterval time.Duration
	// refreshInterval 周期对账间隔, <=0 关闭
	refreshInterval time.Duration
	// refreshOnConnect 连接(重)建立事件触发一轮全量对账
	refreshOnConnect bool
	// keepFlat 保留数量归零的仓位
	keepFlat bool
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

func WithLimiter(l limiter.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

func WithPnLEpsilon(eps decimal.Decimal) Option {
	return func(o *options) {
		o.pnlEpsilon = eps
	}
}

func WithMarginThresholds(warn, critical decimal.Decimal) Option {
	return func(o *options) {
		o.warnRatio = warn
		o.criticalRatio = critical
	}
}

func WithMaxOrderEntries(n int) Option {
	return func(o *options) {
		o.maxOrderEntries = n
	}
}

func WithTerminalTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.terminalTTL = ttl
	}
}

func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

func WithRefreshInterval(d time.Duration) Option {
	return func(o *options) {
		o.refreshInterval = d
	}
}

func WithRefreshOnConnect(enable bool) Option {
	return func(o *options) {
		o.refreshOnConnect = enable
	}
}

func WithKeepFlat(keep bool) Option {
	return func(o *options) {
		o.keepFlat = keep
	}
}

func defaultOptions() *options {
	return &options{
		logger:           log.NewHelper(log.DefaultLogger),
		pnlEpsilon:       exchange.DefaultPnLEpsilon,
		warnRatio:        decimal.NewFromFloat(0.75),
		criticalRatio:    decimal.NewFromFloat(0.90),
		maxOrderEntries:  10000,
		terminalTTL:      10 * time.Minute,
		sweepInterval:    time.Minute,
		refreshInterval:  30 * time.Second,
		refreshOnConnect: true,
	}
}
