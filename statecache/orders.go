package statecache

import (
	"sort"
	"time"

	"github.com/go-gotop/statesync/exchange"
)

// OrderCache 单账户实例的订单缓存, 键为交易所订单号。
// 终态订单保留在缓存中直到 TTL 清理或容量逐出, 活跃订单永不被逐出。
type OrderCache struct {
	opts  *options
	store *store[exchange.Order]
}

func NewOrderCache(opts ...Option) *OrderCache {
	return &OrderCache{
		opts:  newOptions(opts...),
		store: newStore[exchange.Order](),
	}
}

// Upsert 写入订单。条目首次进入终态时记录观察时间,
// 供 TTL 清理与容量逐出排序使用。
func (c *OrderCache) Upsert(o exchange.Order) Change[exchange.Order] {
	var terminalAt int64
	if o.Terminal() {
		terminalAt = time.Now().UnixMilli()
	}
	return c.store.put(o.Key(), o, terminalAt, c.opts.maxEntries, c.opts.onEvict)
}

func (c *OrderCache) Get(orderID string) (exchange.Order, bool) {
	return c.store.get(orderID)
}

// List 全部订单, 按创建时间与订单号排序
func (c *OrderCache) List() []exchange.Order {
	m := c.store.view()
	out := make([]exchange.Order, 0, len(m))
	for _, e := range m {
		out = append(out, e.val)
	}
	sortOrders(out)
	return out
}

// ListActive 未到终态的订单, 按创建时间与订单号排序
func (c *OrderCache) ListActive() []exchange.Order {
	m := c.store.view()
	out := make([]exchange.Order, 0, len(m))
	for _, e := range m {
		if e.val.State.Active() {
			out = append(out, e.val)
		}
	}
	sortOrders(out)
	return out
}

func (c *OrderCache) ListBySymbol(symbol string) []exchange.Order {
	m := c.store.view()
	out := make([]exchange.Order, 0, len(m))
	for _, e := range m {
		if e.val.Symbol == symbol {
			out = append(out, e.val)
		}
	}
	sortOrders(out)
	return out
}

// BatchUpsert 逐条写入, 返回对应的变更描述
func (c *OrderCache) BatchUpsert(orders []exchange.Order) []Change[exchange.Order] {
	changes := make([]Change[exchange.Order], 0, len(orders))
	for _, o := range orders {
		changes = append(changes, c.Upsert(o))
	}
	return changes
}

// ReplaceAll 用快照整表换入, 不在快照中的订单直接消失, 不触发逐出回调
func (c *OrderCache) ReplaceAll(orders []exchange.Order) {
	c.store.replaceAll(orders,
		func(o exchange.Order) string { return o.Key() },
		func(o exchange.Order) int64 {
			if o.Terminal() {
				return time.Now().UnixMilli()
			}
			return 0
		})
}

func (c *OrderCache) Remove(orderID string) Change[exchange.Order] {
	return c.store.remove(orderID)
}

// SweepTerminal 移除进入终态已超过 ttl 的订单, 返回移除数量
func (c *OrderCache) SweepTerminal(ttl time.Duration) int {
	before := time.Now().Add(-ttl).UnixMilli()
	return c.store.sweepTerminal(before, c.opts.onEvict)
}

func (c *OrderCache) Len() int {
	return c.store.len()
}

func (c *OrderCache) Stats() Stats {
	return c.store.stats()
}

func sortOrders(orders []exchange.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt != orders[j].CreatedAt {
			return orders[i].CreatedAt < orders[j].CreatedAt
		}
		return orders[i].OrderID < orders[j].OrderID
	})
}
