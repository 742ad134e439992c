package statecache

import (
	"github.com/shopspring/decimal"

	"github.com/go-gotop/statesync/exchange"
)

type options struct {
	// maxEntries 容量上限, 仅对订单缓存生效, <=0 表示不限制
	maxEntries int
	// pnlEpsilon 浮动盈亏的更新阈值, 低于该值的漂移不视为变更
	pnlEpsilon decimal.Decimal
	// keepFlat 保留数量归零的仓位, 默认移除
	keepFlat bool
	// onEvict 条目被逐出时的回调, 在写路径上同步执行
	onEvict EvictFunc
}

type Option func(*options)

func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

func WithPnLEpsilon(eps decimal.Decimal) Option {
	return func(o *options) {
		o.pnlEpsilon = eps
	}
}

func WithKeepFlat(keep bool) Option {
	return func(o *options) {
		o.keepFlat = keep
	}
}

func WithOnEvict(fn EvictFunc) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		maxEntries: 10000,
		pnlEpsilon: exchange.DefaultPnLEpsilon,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
