package statecache

import (
	"sort"

	"github.com/go-gotop/statesync/exchange"
)

// PositionCache 单账户实例的仓位缓存, 键为交易对。
// 条目数量受交易所上架品种约束, 不做容量逐出。
type PositionCache struct {
	opts  *options
	store *store[exchange.Position]
}

func NewPositionCache(opts ...Option) *PositionCache {
	return &PositionCache{
		opts:  newOptions(opts...),
		store: newStore[exchange.Position](),
	}
}

// Upsert 写入仓位。数量归零的仓位默认移除, keepFlat 时保留
func (c *PositionCache) Upsert(p exchange.Position) Change[exchange.Position] {
	if p.Flat() && !c.opts.keepFlat {
		return c.store.remove(p.Key())
	}
	return c.store.put(p.Key(), p, 0, 0, nil)
}

func (c *PositionCache) Get(symbol string) (exchange.Position, bool) {
	return c.store.get(symbol)
}

// List 全部仓位, 按交易对排序
func (c *PositionCache) List() []exchange.Position {
	m := c.store.view()
	out := make([]exchange.Position, 0, len(m))
	for _, e := range m {
		out = append(out, e.val)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func (c *PositionCache) ListBySide(side exchange.PositionSide) []exchange.Position {
	m := c.store.view()
	out := make([]exchange.Position, 0, len(m))
	for _, e := range m {
		if e.val.Side == side {
			out = append(out, e.val)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// BatchUpsert 逐条写入, 返回对应的变更描述
func (c *PositionCache) BatchUpsert(positions []exchange.Position) []Change[exchange.Position] {
	changes := make([]Change[exchange.Position], 0, len(positions))
	for _, p := range positions {
		changes = append(changes, c.Upsert(p))
	}
	return changes
}

// ReplaceAll 用快照整表换入。归零仓位与缺席的仓位一样不落表, keepFlat 时保留
func (c *PositionCache) ReplaceAll(positions []exchange.Position) {
	kept := make([]exchange.Position, 0, len(positions))
	for _, p := range positions {
		if p.Flat() && !c.opts.keepFlat {
			continue
		}
		kept = append(kept, p)
	}
	c.store.replaceAll(kept,
		func(p exchange.Position) string { return p.Key() },
		func(exchange.Position) int64 { return 0 })
}

func (c *PositionCache) Remove(symbol string) Change[exchange.Position] {
	return c.store.remove(symbol)
}

func (c *PositionCache) Len() int {
	return c.store.len()
}

func (c *PositionCache) Stats() Stats {
	return c.store.stats()
}
