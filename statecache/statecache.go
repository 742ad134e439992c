// statecache 维护单个账户实例的本地权威状态: 订单, 仓位, 账户摘要。
// 写路径由调用方串行化, 读路径无锁, 读到的永远是某个完整版本的快照。
package statecache

// ChangeKind 一次写入对缓存产生的效果
type ChangeKind int

const (
	// ChangeNone 写入未改变缓存内容
	ChangeNone ChangeKind = iota
	// ChangeCreated 新键首次写入
	ChangeCreated
	// ChangeUpdated 已有键被覆盖
	ChangeUpdated
	// ChangeRemoved 键被移除
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "CREATED"
	case ChangeUpdated:
		return "UPDATED"
	case ChangeRemoved:
		return "REMOVED"
	default:
		return "NONE"
	}
}

// Change 写入结果, Previous 仅在覆盖或移除时携带旧值
type Change[T any] struct {
	Kind     ChangeKind
	Previous *T
}

// EvictReason 逐出原因
type EvictReason string

const (
	EvictCapacity EvictReason = "CAPACITY"
	EvictTTL      EvictReason = "TTL"
)

// EvictFunc 逐出回调, 在写路径上同步执行
type EvictFunc func(key string, reason EvictReason)

// Stats 缓存计数
type Stats struct {
	// Total 全部条目数
	Total int
	// Active 活跃条目数
	Active int
	// Terminal 终态条目数
	Terminal int
}
