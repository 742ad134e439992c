package exchange

import (
	"github.com/shopspring/decimal"
)

// OrderUpdate 推送通道下发的订单增量
type OrderUpdate struct {
	// InstanceID 所属账户实例
	InstanceID string
	// Exchange 交易所
	Exchange string
	// OrderID 交易所订单号
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
	// State 本次推送后的订单状态
	State OrderState
	// Volume 原交易数量
	Volume decimal.Decimal
	// FilledVolume 累计已成交数量
	FilledVolume decimal.Decimal
	// LatestVolume 本次成交数量
	LatestVolume decimal.Decimal
	// Price 委托价格
	Price decimal.Decimal
	// TriggerPrice 条件单触发价格
	TriggerPrice decimal.Decimal
	// AvgPrice 平均成交价格
	AvgPrice decimal.Decimal
	// FeeAsset 手续费币种
	FeeAsset string
	// FeeCost 本次推送的累计手续费
	FeeCost decimal.Decimal
	// TransactionTime 交易所事件时间, 毫秒时间戳
	TransactionTime int64
	// RawPayload 交易所原始报文
	RawPayload []byte
}

// ToOrder 转换为缓存实体
func (u OrderUpdate) ToOrder() Order {
	return Order{
		InstanceID:    u.InstanceID,
		Exchange:      u.Exchange,
		OrderID:       u.OrderID,
		ClientOrderID: u.ClientOrderID,
		Symbol:        u.Symbol,
		Instrument:    u.Instrument,
		Side:          u.Side,
		PositionSide:  u.PositionSide,
		Type:          u.Type,
		TimeInForce:   u.TimeInForce,
		State:         u.State,
		Volume:        u.Volume,
		FilledVolume:  u.FilledVolume,
		Price:         u.Price,
		TriggerPrice:  u.TriggerPrice,
		AvgPrice:      u.AvgPrice,
		FeeAsset:      u.FeeAsset,
		FeeCost:       u.FeeCost,
		CreatedAt:     u.TransactionTime,
		UpdatedAt:     u.TransactionTime,
		RawPayload:    u.RawPayload,
	}
}

// PositionUpdate 推送通道下发的仓位增量
type PositionUpdate struct {
	// InstanceID 所属账户实例
	InstanceID string
	// Exchange 交易所
	Exchange string
	// Symbol 交易对
	Symbol string
	// Instrument 种类 SPOT, FUTURES
	Instrument InstrumentType
	// Side 持仓方向 LONG, SHORT
	Side PositionSide
	// Size 持仓数量, 恒为非负
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
	// TransactionTime 交易所事件时间, 毫秒时间戳
	TransactionTime int64
	// RawPayload 交易所原始报文
	RawPayload []byte
}

// ToPosition 转换为缓存实体
func (u PositionUpdate) ToPosition() Position {
	return Position{
		InstanceID:       u.InstanceID,
		Exchange:         u.Exchange,
		Symbol:           u.Symbol,
		Instrument:       u.Instrument,
		Side:             u.Side,
		Size:             u.Size,
		EntryPrice:       u.EntryPrice,
		MarkPrice:        u.MarkPrice,
		Leverage:         u.Leverage,
		UnrealizedPnL:    u.UnrealizedPnL,
		RealizedPnL:      u.RealizedPnL,
		InitialMargin:    u.InitialMargin,
		MaintMargin:      u.MaintMargin,
		LiquidationPrice: u.LiquidationPrice,
		UpdatedAt:        u.TransactionTime,
		RawPayload:       u.RawPayload,
	}
}

// AccountUpdate 推送通道下发的账户摘要增量
type AccountUpdate struct {
	// InstanceID 所属账户实例
	InstanceID string
	// Exchange 交易所
	Exchange string
	// Currency 结算货币
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
	// TransactionTime 交易所事件时间, 毫秒时间戳
	TransactionTime int64
	// RawPayload 交易所原始报文
	RawPayload []byte
}

// ToAccountSummary 转换为缓存实体
func (u AccountUpdate) ToAccountSummary() AccountSummary {
	return AccountSummary{
		InstanceID:    u.InstanceID,
		Exchange:      u.Exchange,
		Currency:      u.Currency,
		Equity:        u.Equity,
		Balance:       u.Balance,
		Available:     u.Available,
		InitialMargin: u.InitialMargin,
		MaintMargin:   u.MaintMargin,
		UnrealizedPnL: u.UnrealizedPnL,
		SessionPnL:    u.SessionPnL,
		UpdatedAt:     u.TransactionTime,
		RawPayload:    u.RawPayload,
	}
}
