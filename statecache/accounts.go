package statecache

import (
	"sort"

	"github.com/go-gotop/statesync/exchange"
)

// AccountCache 单账户实例的账户摘要缓存, 键为结算币种
type AccountCache struct {
	opts  *options
	store *store[exchange.AccountSummary]
}

func NewAccountCache(opts ...Option) *AccountCache {
	return &AccountCache{
		opts:  newOptions(opts...),
		store: newStore[exchange.AccountSummary](),
	}
}

func (c *AccountCache) Upsert(a exchange.AccountSummary) Change[exchange.AccountSummary] {
	return c.store.put(a.Key(), a, 0, 0, nil)
}

func (c *AccountCache) Get(currency string) (exchange.AccountSummary, bool) {
	return c.store.get(currency)
}

// List 全部币种的摘要, 按币种排序
func (c *AccountCache) List() []exchange.AccountSummary {
	m := c.store.view()
	out := make([]exchange.AccountSummary, 0, len(m))
	for _, e := range m {
		out = append(out, e.val)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Currency < out[j].Currency
	})
	return out
}

// BatchUpsert 逐条写入, 返回对应的变更描述
func (c *AccountCache) BatchUpsert(accounts []exchange.AccountSummary) []Change[exchange.AccountSummary] {
	changes := make([]Change[exchange.AccountSummary], 0, len(accounts))
	for _, a := range accounts {
		changes = append(changes, c.Upsert(a))
	}
	return changes
}

// ReplaceAll 用快照整表换入, 不在快照中的币种直接消失
func (c *AccountCache) ReplaceAll(accounts []exchange.AccountSummary) {
	c.store.replaceAll(accounts,
		func(a exchange.AccountSummary) string { return a.Key() },
		func(exchange.AccountSummary) int64 { return 0 })
}

func (c *AccountCache) Remove(currency string) Change[exchange.AccountSummary] {
	return c.store.remove(currency)
}

func (c *AccountCache) Len() int {
	return c.store.len()
}

func (c *AccountCache) Stats() Stats {
	return c.store.stats()
}
