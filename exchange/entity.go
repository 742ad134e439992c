package exchange

import (
	"github.com/shopspring/decimal"
)

// DefaultPnLEpsilon 盈亏漂移阈值, 低于该值的浮动盈亏变化不触发更新
var DefaultPnLEpsilon = decimal.NewFromFloat(0.01)

type Order struct {
	// InstanceID 所属账户实例
	InstanceID string
	// Exchange 交易所
	Exchange string
	// OrderID 交易所订单号, 缓存主键
	OrderID string
	// ClientOrderID 自定义客户端订单号
	ClientOrderID string
	// Symbol 交易对
	Symbol string
	// Instrument 种类 SPOT, FUTURES
	Instrument InstrumentType
	// Side BUY, SELL
	Side SideType
	// PositionSide LONG, SHORT
	PositionSide PositionSide
	// Type LIMIT, MARKET, STOP
	Type OrderType
	// TimeInForce GTC, IOC, FOK, GTX, GTD
	TimeInForce TimeInForce
	// State 当前订单状态
	State OrderState
	// Volume 原交易数量
	Volume decimal.Decimal
	// FilledVolume 已成交数量
	FilledVolume decimal.Decimal
	// Price 委托价格
	Price decimal.Decimal
	// TriggerPrice 条件单触发价格
	TriggerPrice decimal.Decimal
	// AvgPrice 平均成交价格
	AvgPrice decimal.Decimal
	// FeeAsset 手续费币种
	FeeAsset string
	// FeeCost 累计手续费
	FeeCost decimal.Decimal
	// CreatedAt 创建时间, 毫秒时间戳
	CreatedAt int64
	// UpdatedAt 最近更新时间, 毫秒时间戳
	UpdatedAt int64
	// RawPayload 交易所原始报文
	RawPayload []byte
}

// Key 缓存主键
func (o Order) Key() string {
	return o.OrderID
}

// Terminal 是否处于终态
func (o Order) Terminal() bool {
	return o.State.Terminal()
}

// FullyFilled 判断已成交数量是否达到委托数量
func (o Order) FullyFilled() bool {
	return o.Volume.IsPositive() && o.FilledVolume.GreaterThanOrEqual(o.Volume)
}

// Equal 语义等价判断, 时间戳与原始报文不参与比较
func (o Order) Equal(other Order) bool {
	return o.OrderID == other.OrderID &&
		o.Symbol == other.Symbol &&
		o.Side == other.Side &&
		o.PositionSide == other.PositionSide &&
		o.Type == other.Type &&
		o.State == other.State &&
		o.Volume.Equal(other.Volume) &&
		o.FilledVolume.Equal(other.FilledVolume) &&
		o.Price.Equal(other.Price) &&
		o.TriggerPrice.Equal(other.TriggerPrice) &&
		o.AvgPrice.Equal(other.AvgPrice)
}

// NeedsUpdate 判断快照值 next 是否需要覆盖缓存值
func (o Order) NeedsUpdate(next Order) bool {
	return o.State != next.State ||
		!o.FilledVolume.Equal(next.FilledVolume) ||
		!o.Volume.Equal(next.Volume) ||
		!o.Price.Equal(next.Price) ||
		!o.TriggerPrice.Equal(next.TriggerPrice) ||
		!o.AvgPrice.Equal(next.AvgPrice)
}

type Position struct {
	// InstanceID 所属账户实例
	InstanceID string
	// Exchange 交易所
	Exchange string
	// Symbol 交易对, 净持仓模式下为缓存主键
	Symbol string
	// Instrument 种类 SPOT, FUTURES
	Instrument InstrumentType
	// Side 持仓方向 LONG, SHORT
	Side PositionSide
	// Size 持仓数量, 恒为非负, 方向由 Side 表达
	Size decimal.Decimal
	// EntryPrice 开仓均价
	EntryPrice decimal.Decimal
	// MarkPrice 标记价格
	MarkPrice decimal.Decimal
	// Leverage 杠杆倍数
	Leverage decimal.Decimal
	// UnrealizedPnL 未实现盈亏
	UnrealizedPnL decimal.Decimal
	// RealizedPnL 已实现盈亏
	RealizedPnL decimal.Decimal
	// InitialMargin 起始保证金
	InitialMargin decimal.Decimal
	// MaintMargin 维持保证金
	MaintMargin decimal.Decimal
	// LiquidationPrice 强平价格
	LiquidationPrice decimal.Decimal
	// UpdatedAt 最近更新时间, 毫秒时间戳
	UpdatedAt int64
	// RawPayload 交易所原始报文
	RawPayload []byte
}

// Key 缓存主键
func (p Position) Key() string {
	return p.Symbol
}

// Flat 持仓数量为零
func (p Position) Flat() bool {
	return p.Size.IsZero()
}

// Reversed 判断 next 相对当前持仓是否发生方向翻转
func (p Position) Reversed(next Position) bool {
	return !p.Flat() && !next.Flat() && p.Side != next.Side
}

// Equal 语义等价判断, 标记价格与盈亏不参与比较
func (p Position) Equal(other Position) bool {
	return p.Symbol == other.Symbol &&
		p.Side == other.Side &&
		p.Size.Equal(other.Size) &&
		p.EntryPrice.Equal(other.EntryPrice) &&
		p.Leverage.Equal(other.Leverage) &&
		p.InitialMargin.Equal(other.InitialMargin) &&
		p.MaintMargin.Equal(other.MaintMargin)
}

// NeedsUpdate 判断快照值 next 是否需要覆盖缓存值。
// 结构性字段严格比较, 盈亏字段允许 eps 以内的漂移。
func (p Position) NeedsUpdate(next Position, eps decimal.Decimal) bool {
	if !p.Equal(next) {
		return true
	}
	if p.UnrealizedPnL.Sub(next.UnrealizedPnL).Abs().GreaterThan(eps) {
		return true
	}
	if p.RealizedPnL.Sub(next.RealizedPnL).Abs().GreaterThan(eps) {
		return true
	}
	return false
}

type AccountSummary struct {
	// InstanceID 所属账户实例
	InstanceID string
	// Exchange 交易所
	Exchange string
	// Currency 结算货币, 缓存主键
	Currency string
	// Equity 账户权益
	Equity decimal.Decimal
	// Balance 钱包余额
	Balance decimal.Decimal
	// Available 可用资金
	Available decimal.Decimal
	// InitialMargin 已占用起始保证金
	InitialMargin decimal.Decimal
	// MaintMargin 已占用维持保证金
	MaintMargin decimal.Decimal
	// UnrealizedPnL 未实现盈亏
	UnrealizedPnL decimal.Decimal
	// SessionPnL 本会话累计盈亏
	SessionPnL decimal.Decimal
	// UpdatedAt 最近更新时间, 毫秒时间戳
	UpdatedAt int64
	// RawPayload 交易所原始报文
	RawPayload []byte
}

// Key 缓存主键
func (a AccountSummary) Key() string {
	return a.Currency
}

// MarginRatio 维持保证金占账户权益比例, 权益为零时返回零值
func (a AccountSummary) MarginRatio() decimal.Decimal {
	if a.Equity.IsZero() {
		return decimal.Zero
	}
	return a.MaintMargin.Div(a.Equity)
}

// Equal 语义等价判断
func (a AccountSummary) Equal(other AccountSummary) bool {
	return a.Currency == other.Currency &&
		a.Equity.Equal(other.Equity) &&
		a.Balance.Equal(other.Balance) &&
		a.Available.Equal(other.Available) &&
		a.InitialMargin.Equal(other.InitialMargin) &&
		a.MaintMargin.Equal(other.MaintMargin) &&
		a.UnrealizedPnL.Equal(other.UnrealizedPnL)
}

// NeedsUpdate 任一货币字段漂移超过 eps 即需要覆盖
func (a AccountSummary) NeedsUpdate(next AccountSummary, eps decimal.Decimal) bool {
	for _, pair := range [][2]decimal.Decimal{
		{a.Equity, next.Equity},
		{a.Balance, next.Balance},
		{a.Available, next.Available},
		{a.InitialMargin, next.InitialMargin},
		{a.MaintMargin, next.MaintMargin},
		{a.UnrealizedPnL, next.UnrealizedPnL},
	} {
		if pair[0].Sub(pair[1]).Abs().GreaterThan(eps) {
			return true
		}
	}
	return false
}
