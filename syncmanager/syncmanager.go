// Description: 状态同步器
// 把推送增量与周期快照对账汇聚到每个账户实例的本地权威缓存。
// 同一实例的所有写入经过实例级单写者锁, 事件按提交顺序对外发布,
// 查询走缓存的写时复制快照, 不加锁。

package syncmanager

import (
	"context"

	"github.com/go-gotop/statesync/exchange"
	"github.com/go-gotop/statesync/statecache"
)

// InstanceRequest 账户实例注册参数
type InstanceRequest struct {
	// ID 账户实例标识, 推送、查询、事件都以它定位实例
	ID string
	// Exchange 交易所
	Exchange string
	// Provider 快照源, 初次注水与周期对账都从这里拉取
	Provider exchange.SnapshotProvider
}

// Stats 同步器运行统计
type Stats struct {
	// Instances 已注册实例数
	Instances int
	// Orders 全部实例的订单缓存统计
	Orders statecache.Stats
	// Positions 全部实例的仓位缓存统计
	Positions statecache.Stats
	// Accounts 全部实例的账户摘要统计
	Accounts statecache.Stats
	// Evicted 容量逐出条目总数
	Evicted uint64
	// Swept TTL 清理条目总数
	Swept uint64
	// Ignored 无法识别而被忽略的推送总数
	Ignored uint64
}

// SyncManager 状态同步器
type SyncManager interface {
	// AddInstance 注册账户实例
	AddInstance(ctx context.Context, req *InstanceRequest) error
	// RemoveInstance 注销账户实例并丢弃其缓存
	RemoveInstance(instanceID string) error

	// ApplyOrderUpdate 应用订单推送, 迁移分类后发对应事件
	ApplyOrderUpdate(ctx context.Context, upd *exchange.OrderUpdate) error
	// ApplyPositionUpdate 应用仓位推送
	ApplyPositionUpdate(ctx context.Context, upd *exchange.PositionUpdate) error
	// ApplyAccountUpdate 应用账户摘要推送
	ApplyAccountUpdate(ctx context.Context, upd *exchange.AccountUpdate) error

	// Refresh* 快照对账入口, 快照拉取失败原样返回给调用方
	RefreshOrders(ctx context.Context, instanceID string) error
	RefreshPositions(ctx context.Context, instanceID string) error
	RefreshAccounts(ctx context.Context, instanceID string) error
	RefreshAll(ctx context.Context, instanceID string) error

	GetOrder(instanceID, orderID string) (exchange.Order, error)
	ActiveOrders(instanceID string) ([]exchange.Order, error)
	OrdersBySymbol(instanceID, symbol string) ([]exchange.Order, error)
	GetPosition(instanceID, symbol string) (exchange.Position, error)
	Positions(instanceID string) ([]exchange.Position, error)
	GetAccountSummary(instanceID, currency string) (exchange.AccountSummary, error)
	AccountSummaries(instanceID string) ([]exchange.AccountSummary, error)
	Stats() Stats

	// Start 启动周期对账与终态清理循环
	Start(ctx context.Context) error
	Shutdown() error
}
