package broker

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/go-gotop/statesync/exchange"
)

// Event 总线事件, Type 决定哪一个负载指针非空
type Event struct {
	// ID 事件唯一标识
	ID string `json:"id"`
	// Type 事件主题
	Type EventType `json:"type"`
	// InstanceID 所属账户实例
	InstanceID string `json:"instanceId"`
	// Timestamp 事件产生时间, 毫秒时间戳
	Timestamp int64 `json:"timestamp"`

	Order      *OrderMeta      `json:"order,omitempty"`
	Position   *PositionMeta   `json:"position,omitempty"`
	Account    *AccountMeta    `json:"account,omitempty"`
	Eviction   *EvictionMeta   `json:"eviction,omitempty"`
	Reconcile  *ReconcileMeta  `json:"reconcile,omitempty"`
	Connection *ConnectionMeta `json:"connection,omitempty"`
	Session    *SessionMeta    `json:"session,omitempty"`
	Margin     *MarginMeta     `json:"margin,omitempty"`
}

// NewEvent 构造一条带 ID 与时间戳的事件
func NewEvent(t EventType, instanceID string) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       t,
		InstanceID: instanceID,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// OrderMeta 订单事件负载, Previous 在首次出现时为空
type OrderMeta struct {
	Order    exchange.Order  `json:"order"`
	Previous *exchange.Order `json:"previous,omitempty"`
	// LatestVolume 本次推送新增成交数量, 仅成交类事件携带
	LatestVolume decimal.Decimal `json:"latestVolume"`
}

// PositionMeta 仓位事件负载
type PositionMeta struct {
	Position exchange.Position  `json:"position"`
	Previous *exchange.Position `json:"previous,omitempty"`
}

// AccountMeta 账户事件负载
type AccountMeta struct {
	Account  exchange.AccountSummary  `json:"account"`
	Previous *exchange.AccountSummary `json:"previous,omitempty"`
}

// EvictionMeta 缓存逐出负载
type EvictionMeta struct {
	// Kind 实体类型 ORDER, POSITION, ACCOUNT
	Kind string `json:"kind"`
	// Key 被逐出的缓存主键
	Key string `json:"key"`
	// Reason 逐出原因 CAPACITY, TTL
	Reason string `json:"reason"`
}

// ReconcileMeta 一轮快照对账的结果摘要
type ReconcileMeta struct {
	// Kind 实体类型 ORDER, POSITION, ACCOUNT
	Kind string `json:"kind"`
	// Created 快照中新出现的实体数
	Created int `json:"created"`
	// Updated 与缓存存在差异而被覆盖的实体数
	Updated int `json:"updated"`
	// Removed 缓存中多余而被移除的实体数
	Removed int `json:"removed"`
	// Elapsed 对账耗时
	Elapsed time.Duration `json:"elapsed"`
}

// ConnectionMeta 连接事件负载
type ConnectionMeta struct {
	// StreamID 连接标识
	StreamID string `json:"streamId"`
	// Attempt 第几次重连尝试
	Attempt int `json:"attempt,omitempty"`
	// Delay 下一次尝试前的等待时长
	Delay time.Duration `json:"delay,omitempty"`
	// Reason 断开原因
	Reason string `json:"reason,omitempty"`
	// Resumed 是否为断线恢复, 首次建立为 false
	Resumed bool `json:"resumed,omitempty"`
	// Replayed 重放的订阅条数
	Replayed int `json:"replayed,omitempty"`
}

// SessionMeta 会话事件负载, 不携带凭证本体
type SessionMeta struct {
	// ExpiresAt 新凭证过期时间, 毫秒时间戳
	ExpiresAt int64 `json:"expiresAt,omitempty"`
	// Reason 失败原因
	Reason string `json:"reason,omitempty"`
}

// MarginMeta 保证金水位负载
type MarginMeta struct {
	// Currency 结算货币
	Currency string `json:"currency"`
	// Ratio 维持保证金占权益比例
	Ratio decimal.Decimal `json:"ratio"`
	// Level 当前水位 NORMAL, WARNING, CRITICAL
	Level string `json:"level"`
}
