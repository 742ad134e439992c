package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var _ Bus = (*EventBus)(nil)

type subscriber struct {
	id    string
	types map[EventType]struct{} // nil 表示全量订阅
	fn    Handler
	ch    chan *Event
}

func (s *subscriber) wants(t EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// EventBus 是 Bus 的进程内实现。
// 回调订阅者在发布协程上同步执行, 注册顺序即分发顺序,
// 订阅与注销不应在回调内部进行。
type EventBus struct {
	opts    *options
	mu      sync.RWMutex
	subs    []*subscriber
	closed  bool
	dropped atomic.Uint64
}

func NewBus(opts ...Option) *EventBus {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &EventBus{opts: o}
}

func (b *EventBus) SubscribeFunc(h Handler, types ...EventType) func() {
	sub := &subscriber{
		id:    uuid.New().String(),
		types: typeSet(types),
		fn:    h,
	}
	b.add(sub)
	return func() { b.remove(sub.id) }
}

func (b *EventBus) Subscribe(buffer int, types ...EventType) (<-chan *Event, func()) {
	if buffer <= 0 {
		buffer = b.opts.chanBuffer
	}
	sub := &subscriber{
		id:    uuid.New().String(),
		types: typeSet(types),
		ch:    make(chan *Event, buffer),
	}
	b.add(sub)
	return sub.ch, func() { b.remove(sub.id) }
}

func (b *EventBus) Publish(ctx context.Context, evt *Event) {
	if evt == nil {
		return
	}
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.wants(evt.Type) {
			continue
		}
		if sub.fn != nil {
			if err := b.dispatch(ctx, sub.fn, evt); err != nil {
				b.opts.logger.Errorf("event bus: handler failed on %s: %v", evt.Type, err)
			}
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			b.dropped.Add(1)
			b.opts.logger.Warnf("event bus: subscriber channel full, dropped %s", evt.Type)
		}
	}
}

// Dropped 返回因通道写满而被丢弃的事件总数
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close 停止分发。订阅通道不关闭, 避免与在途发布竞争。
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
	return nil
}

func (b *EventBus) add(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.subs = append(b.subs, sub)
}

func (b *EventBus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// dispatch 执行单个回调, 吸收 panic 保证其余订阅者不受影响
func (b *EventBus) dispatch(ctx context.Context, h Handler, evt *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}

func typeSet(types []EventType) map[EventType]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}
