package statecache

import (
	"sync"
	"sync/atomic"
)

// entry 缓存条目, 附带逐出判定用的元信息
type entry[T any] struct {
	val T
	// seq 写入序号, 同一时刻进入终态的条目按先来后到逐出
	seq uint64
	// terminalAt 进入终态时间, 毫秒时间戳, 0 表示活跃
	terminalAt int64
}

// store 写时复制的键值核心。写者持锁在副本上修改后整表原子换入,
// 读者解引用当前表即可, 不加锁也不会观察到中间状态。
type store[T any] struct {
	mu   sync.Mutex
	snap atomic.Pointer[map[string]entry[T]]
	seq  uint64
}

func newStore[T any]() *store[T] {
	s := &store[T]{}
	empty := make(map[string]entry[T])
	s.snap.Store(&empty)
	return s
}

// view 当前不可变表, 只读
func (s *store[T]) view() map[string]entry[T] {
	return *s.snap.Load()
}

func (s *store[T]) get(key string) (T, bool) {
	e, ok := s.view()[key]
	return e.val, ok
}

func (s *store[T]) len() int {
	return len(s.view())
}

// mutate 复制当前表, 在副本上执行 fn, 然后换入
func (s *store[T]) mutate(fn func(m map[string]entry[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := *s.snap.Load()
	next := make(map[string]entry[T], len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	fn(next)
	s.snap.Store(&next)
}

// put 写入并执行容量控制。terminalAt 为零表示活跃条目;
// 已处于终态的条目保留首次进入终态的时间。
// 容量越界时先逐出最早进入终态的条目, 活跃条目永不被逐出。
func (s *store[T]) put(key string, val T, terminalAt int64, maxEntries int, onEvict EvictFunc) Change[T] {
	var change Change[T]
	s.mutate(func(m map[string]entry[T]) {
		if prev, ok := m[key]; ok {
			pv := prev.val
			ta := terminalAt
			if prev.terminalAt > 0 && terminalAt > 0 {
				ta = prev.terminalAt
			}
			m[key] = entry[T]{val: val, seq: prev.seq, terminalAt: ta}
			change = Change[T]{Kind: ChangeUpdated, Previous: &pv}
		} else {
			s.seq++
			m[key] = entry[T]{val: val, seq: s.seq, terminalAt: terminalAt}
			change = Change[T]{Kind: ChangeCreated}
		}

		if maxEntries <= 0 {
			return
		}
		for len(m) > maxEntries {
			victim := ""
			var ve entry[T]
			for k, e := range m {
				if e.terminalAt == 0 {
					continue
				}
				if victim == "" || e.terminalAt < ve.terminalAt ||
					(e.terminalAt == ve.terminalAt && e.seq < ve.seq) {
					victim, ve = k, e
				}
			}
			if victim == "" {
				// 全部活跃, 允许暂时越界
				return
			}
			delete(m, victim)
			if onEvict != nil {
				onEvict(victim, EvictCapacity)
			}
		}
	})
	return change
}

// replaceAll 整表换入快照, 不在快照中的键直接消失。
// 已有条目保留写入序号与终态首见时间, 新条目重新编号。
func (s *store[T]) replaceAll(items []T, key func(T) string, terminalAt func(T) int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := *s.snap.Load()
	next := make(map[string]entry[T], len(items))
	for _, it := range items {
		k := key(it)
		ta := terminalAt(it)
		if prev, ok := cur[k]; ok {
			if prev.terminalAt > 0 && ta > 0 {
				ta = prev.terminalAt
			}
			next[k] = entry[T]{val: it, seq: prev.seq, terminalAt: ta}
			continue
		}
		s.seq++
		next[k] = entry[T]{val: it, seq: s.seq, terminalAt: ta}
	}
	s.snap.Store(&next)
}

func (s *store[T]) remove(key string) Change[T] {
	var change Change[T]
	s.mutate(func(m map[string]entry[T]) {
		if prev, ok := m[key]; ok {
			pv := prev.val
			delete(m, key)
			change = Change[T]{Kind: ChangeRemoved, Previous: &pv}
		}
	})
	return change
}

// sweepTerminal 移除在 before 之前进入终态的条目, 返回移除数量
func (s *store[T]) sweepTerminal(before int64, onEvict EvictFunc) int {
	n := 0
	s.mutate(func(m map[string]entry[T]) {
		for k, e := range m {
			if e.terminalAt > 0 && e.terminalAt <= before {
				delete(m, k)
				if onEvict != nil {
					onEvict(k, EvictTTL)
				}
				n++
			}
		}
	})
	return n
}

func (s *store[T]) stats() Stats {
	m := s.view()
	st := Stats{Total: len(m)}
	for _, e := range m {
		if e.terminalAt > 0 {
			st.Terminal++
		} else {
			st.Active++
		}
	}
	return st
}
