package exchange

import (
	"context"
	"errors"
)

// SideType BUY, SELL
type SideType string

// OrderType LIMIT, MARKET, STOP
type OrderType string

// OrderState NEW, PARTIALLY_FILLED, FILLED, CANCELED, REJECTED, EXPIRED, UNTRIGGERED, TRIGGERED
type OrderState string

// PositionSide LONG, SHORT
type PositionSide string

// InstrumentType SPOT，FUTURES
type InstrumentType string

// TimeInForce GTC, IOC, FOK, GTX, GTD
type TimeInForce string

// Global enums
const (
	BinanceExchange = "BINANCE"
	OkxExchange     = "OKX"
	DeribitExchange = "DERIBIT"
	MockExchange    = "MOCK"

	InstrumentTypeSpot    InstrumentType = "SPOT"
	InstrumentTypeFutures InstrumentType = "FUTURES"

	SideTypeBuy  SideType = "BUY"
	SideTypeSell SideType = "SELL"

	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeStop   OrderType = "STOP"

	OrderStateNew             OrderState = "NEW"
	OrderStatePartiallyFilled OrderState = "PARTIALLY_FILLED"
	OrderStateFilled          OrderState = "FILLED"
	OrderStateCanceled        OrderState = "CANCELED"
	OrderStateRejected        OrderState = "REJECTED"
	OrderStateExpired         OrderState = "EXPIRED"
	// OrderStateUntriggered 条件单尚未触发
	OrderStateUntriggered OrderState = "UNTRIGGERED"
	// OrderStateTriggered 条件单已触发, 转为普通挂单
	OrderStateTriggered OrderState = "TRIGGERED"

	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"

	// Good Till Cancel 成交为止, 一直有效直到被取消
	TimeInForceGTC TimeInForce = "GTC"
	// Immediate or Cancel 无法立即成交(吃单)的部分就撤销
	TimeInForceIOC TimeInForce = "IOC"
	// Fill or Kill 无法全部立即成交就撤销
	TimeInForceFOK TimeInForce = "FOK"
	// GTX - Good Till Crossing 无法成为挂单方就撤销
	TimeInForceGTX TimeInForce = "GTX"
	// GTD - Good Till Date 在特定时间之前有效，到期自动撤销
	TimeInForceGTD TimeInForce = "GTD"
)

var (
	// ErrOrderNotFound 订单未找到
	ErrOrderNotFound = errors.New("order not found")
	// ErrPositionNotFound 仓位未找到
	ErrPositionNotFound = errors.New("position not found")
	// ErrAccountNotFound 账户摘要未找到
	ErrAccountNotFound = errors.New("account summary not found")
	// ErrInstanceUnknown 账户实例未注册
	ErrInstanceUnknown = errors.New("account instance unknown")
	// ErrSessionExpired 会话凭证已过期
	ErrSessionExpired = errors.New("session token expired")
	// ErrAuthenticationFailed 鉴权失败, 重试后仍被拒绝
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrRateLimitExceeded 访问限制
	ErrRateLimitExceeded = errors.New("rate limit exceeded, IP ban imminent")
)

// Terminal 判断订单状态是否为终态, 终态订单不再发生状态迁移
func (s OrderState) Terminal() bool {
	switch s {
	case OrderStateFilled, OrderStateCanceled, OrderStateRejected, OrderStateExpired:
		return true
	}
	return false
}

// Active 非空且非终态即视为活跃
func (s OrderState) Active() bool {
	return s != "" && !s.Terminal()
}

// Opposite 反方向
func (ps PositionSide) Opposite() PositionSide {
	if ps == PositionSideLong {
		return PositionSideShort
	}
	return PositionSideLong
}

// SnapshotProvider 快照源, 返回某账户实例当前全量的权威实体列表。
// 初次注水与周期性对账都走这里, 由各交易所接入层实现。
type SnapshotProvider interface {
	ActiveOrders(ctx context.Context, instanceID string) ([]Order, error)
	Positions(ctx context.Context, instanceID string) ([]Position, error)
	AccountSummaries(ctx context.Context, instanceID string) ([]AccountSummary, error)
}
