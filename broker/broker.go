package broker

import (
	"context"
)

// EventType 事件主题
type EventType string

const (
	// 订单事件
	OrderCreatedEvent         EventType = "ORDER.CREATED"
	OrderUpdatedEvent         EventType = "ORDER.UPDATED"
	OrderPartiallyFilledEvent EventType = "ORDER.PARTIALLY_FILLED"
	OrderFilledEvent          EventType = "ORDER.FILLED"
	OrderCanceledEvent        EventType = "ORDER.CANCELED"
	OrderRejectedEvent        EventType = "ORDER.REJECTED"
	OrderExpiredEvent         EventType = "ORDER.EXPIRED"
	OrderTriggeredEvent       EventType = "ORDER.TRIGGERED"

	// 仓位事件
	PositionOpenedEvent   EventType = "POSITION.OPENED"
	PositionUpdatedEvent  EventType = "POSITION.UPDATED"
	PositionReversedEvent EventType = "POSITION.REVERSED"
	PositionClosedEvent   EventType = "POSITION.CLOSED"

	// 账户事件
	AccountUpdatedEvent  EventType = "ACCOUNT.UPDATED"
	MarginWarningEvent   EventType = "ACCOUNT.MARGIN_WARNING"
	MarginCriticalEvent  EventType = "ACCOUNT.MARGIN_CRITICAL"
	MarginRecoveredEvent EventType = "ACCOUNT.MARGIN_RECOVERED"

	// 缓存与对账事件
	CacheEvictedEvent EventType = "CACHE.EVICTED"
	ReconciledEvent   EventType = "SYNC.RECONCILED"

	// 连接事件
	ConnectedEvent            EventType = "CONN.CONNECTED"
	ConnectionLostEvent       EventType = "CONN.LOST"
	ReconnectScheduledEvent   EventType = "CONN.RECONNECT_SCHEDULED"
	SubscriptionReplayedEvent EventType = "CONN.SUBSCRIPTION_REPLAYED"
	ConnectionFailedEvent     EventType = "CONN.FAILED"
	ConnectionClosedEvent     EventType = "CONN.CLOSED"
	// MessageErrorEvent 单条推送处理失败, 连接本身保持
	MessageErrorEvent EventType = "CONN.MESSAGE_ERROR"

	// 会话事件
	TokenRefreshedEvent  EventType = "SESSION.TOKEN_REFRESHED"
	ReauthenticatedEvent EventType = "SESSION.REAUTHENTICATED"
	AuthFailedEvent      EventType = "SESSION.AUTH_FAILED"
)

// Handler 事件处理函数, 返回的错误只记录不中断其余订阅者
type Handler func(ctx context.Context, evt *Event) error

// Bus 进程内事件总线。Publish 同步按注册顺序分发,
// 同一生产者发布的事件对所有订阅者保持一致的先后关系。
type Bus interface {
	// SubscribeFunc 注册回调订阅, 返回取消函数。
	// types 为空表示订阅全部事件。
	SubscribeFunc(h Handler, types ...EventType) (unsubscribe func())

	// Subscribe 注册通道订阅, 通道写满时丢弃并记数。
	Subscribe(buffer int, types ...EventType) (ch <-chan *Event, unsubscribe func())

	// Publish 发布事件, ID 与时间戳为空时自动补全
	Publish(ctx context.Context, evt *Event)

	// Dropped 返回因通道写满而被丢弃的事件总数
	Dropped() uint64

	Close() error
}
