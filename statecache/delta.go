package statecache

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/go-gotop/statesync/exchange"
)

// Delta 对账差异集, 三个切片均按实体键排序, 同一输入产出同一结果
type Delta[T any] struct {
	// ToCreate 快照有而缓存没有的实体
	ToCreate []T
	// ToUpdate 两边都有且等价判定认为需要更新的实体, 取快照侧版本
	ToUpdate []T
	// ToDelete 缓存有而快照没有的实体, 取缓存侧版本
	ToDelete []T
}

func (d Delta[T]) Empty() bool {
	return len(d.ToCreate) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

func (d Delta[T]) Size() int {
	return len(d.ToCreate) + len(d.ToUpdate) + len(d.ToDelete)
}

// Compare 纯函数对账核心, 不触碰缓存也不发事件。
// 快照内同键出现多次时以首条为准。
func Compare[T any](current, snapshot []T, key func(T) string, needsUpdate func(cur, next T) bool) Delta[T] {
	cur := make(map[string]T, len(current))
	for _, v := range current {
		cur[key(v)] = v
	}

	seen := make(map[string]bool, len(snapshot))
	var d Delta[T]
	for _, next := range snapshot {
		k := key(next)
		if seen[k] {
			continue
		}
		seen[k] = true
		if prev, ok := cur[k]; ok {
			if needsUpdate(prev, next) {
				d.ToUpdate = append(d.ToUpdate, next)
			}
		} else {
			d.ToCreate = append(d.ToCreate, next)
		}
	}
	for k, prev := range cur {
		if !seen[k] {
			d.ToDelete = append(d.ToDelete, prev)
		}
	}

	sortByKey(d.ToCreate, key)
	sortByKey(d.ToUpdate, key)
	sortByKey(d.ToDelete, key)
	return d
}

// CompareOrders 对账活跃订单。current 应当只包含活跃订单,
// 终态订单的保留与清理不属于对账范畴。
func CompareOrders(current, snapshot []exchange.Order) Delta[exchange.Order] {
	return Compare(current, snapshot,
		func(o exchange.Order) string { return o.Key() },
		func(cur, next exchange.Order) bool { return cur.NeedsUpdate(next) },
	)
}

// ComparePositions 对账仓位。快照里数量归零的仓位视同不存在:
// 缓存有则进入 ToDelete, 缓存没有则直接忽略。
func ComparePositions(current, snapshot []exchange.Position, eps decimal.Decimal) Delta[exchange.Position] {
	live := make([]exchange.Position, 0, len(snapshot))
	for _, p := range snapshot {
		if p.Flat() {
			continue
		}
		live = append(live, p)
	}
	return Compare(current, live,
		func(p exchange.Position) string { return p.Key() },
		func(cur, next exchange.Position) bool { return cur.NeedsUpdate(next, eps) },
	)
}

// CompareAccounts 对账账户摘要, 浮动盈亏漂移低于 eps 不算变更
func CompareAccounts(current, snapshot []exchange.AccountSummary, eps decimal.Decimal) Delta[exchange.AccountSummary] {
	return Compare(current, snapshot,
		func(a exchange.AccountSummary) string { return a.Key() },
		func(cur, next exchange.AccountSummary) bool { return cur.NeedsUpdate(next, eps) },
	)
}

func sortByKey[T any](items []T, key func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		return key(items[i]) < key(items[j])
	})
}
