// Description: 状态同步器实现
// 每个账户实例一把单写者锁, 推送应用与快照落库都经过它,
// 写入与事件发布在锁内完成, 事件顺序即提交顺序。
// 读路径走缓存的写时复制快照, 不与写者竞争。

package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/exchange"
	"github.com/go-gotop/statesync/statecache"
	"github.com/go-gotop/statesync/syncmanager"
)

var _ syncmanager.SyncManager = (*Syncer)(nil)

var (
	// ErrInstanceExists 账户实例重复注册
	ErrInstanceExists = errors.New("account instance already registered")
	// ErrSyncerClosed 同步器已关闭
	ErrSyncerClosed = errors.New("syncer already closed")
)

const (
	kindOrder    = "ORDER"
	kindPosition = "POSITION"
	kindAccount  = "ACCOUNT"
)

// Syncer 状态同步器
type Syncer struct {
	opts *options

	mux       sync.RWMutex // 保护实例表
	instances map[string]*instanceState
	closed    bool
	started   bool
	unsub     func()

	evicted atomic.Uint64
	swept   atomic.Uint64
	ignored atomic.Uint64

	exitChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// instanceState 单实例状态, mu 是该实例唯一的写者锁
type instanceState struct {
	id       string
	exchange string
	provider exchange.SnapshotProvider

	mu        sync.Mutex
	orders    *statecache.OrderCache
	positions *statecache.PositionCache
	accounts  *statecache.AccountCache

	// marginLevels 每币种当前保证金水位, 迟滞判定用
	marginLevels map[string]string
}

func NewSyncer(opts ...Option) *Syncer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("github.com/go-gotop/statesync/syncmanager")
	}

	return &Syncer{
		opts:      o,
		instances: make(map[string]*instanceState),
		exitChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// AddInstance 注册账户实例。注水时机由调用方掌握:
// 显式调用 RefreshAll, 或交给连接建立事件与周期对账。
func (s *Syncer) AddInstance(_ context.Context, req *syncmanager.InstanceRequest) error {
	if req == nil || req.ID == "" {
		return errors.New("instance id required")
	}
	if req.Provider == nil {
		return errors.New("snapshot provider required")
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return ErrSyncerClosed
	}
	if _, ok := s.instances[req.ID]; ok {
		return ErrInstanceExists
	}

	id := req.ID
	ins := &instanceState{
		id:           id,
		exchange:     req.Exchange,
		provider:     req.Provider,
		marginLevels: make(map[string]string),
	}
	ins.orders = statecache.NewOrderCache(
		statecache.WithMaxEntries(s.opts.maxOrderEntries),
		statecache.WithOnEvict(func(key string, reason statecache.EvictReason) {
			if reason == statecache.EvictCapacity {
				s.evicted.Add(1)
			} else {
				s.swept.Add(1)
			}
			s.publishEviction(id, kindOrder, key, reason)
		}),
	)
	ins.positions = statecache.NewPositionCache(statecache.WithKeepFlat(s.opts.keepFlat))
	ins.accounts = statecache.NewAccountCache()

	s.instances[id] = ins
	s.opts.logger.Infof("instance %s registered, exchange: %s", id, req.Exchange)
	return nil
}

func (s *Syncer) RemoveInstance(instanceID string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.instances[instanceID]; !ok {
		return exchange.ErrInstanceUnknown
	}
	delete(s.instances, instanceID)
	s.opts.logger.Infof("instance %s removed", instanceID)
	return nil
}

// Start 启动周期对账与终态清理循环
func (s *Syncer) Start(ctx context.Context) error {
	s.mux.Lock()
	if s.closed {
		s.mux.Unlock()
		return ErrSyncerClosed
	}
	if s.started {
		s.mux.Unlock()
		return nil
	}
	s.started = true
	if s.opts.bus != nil && s.opts.refreshOnConnect {
		s.unsub = s.opts.bus.SubscribeFunc(s.onConnected, broker.ConnectedEvent)
	}
	s.mux.Unlock()

	go s.run(ctx)
	return nil
}

func (s *Syncer) Shutdown() error {
	s.closeOnce.Do(func() {
		s.mux.Lock()
		s.closed = true
		started := s.started
		unsub := s.unsub
		s.mux.Unlock()

		if unsub != nil {
			unsub()
		}
		close(s.exitChan)
		if started {
			<-s.doneChan
		}
	})
	return nil
}

// onConnected 连接(重)建立后重新对账, 弥补断线期间错过的推送。
// 对账在独立协程执行, 不阻塞总线分发。
func (s *Syncer) onConnected(_ context.Context, evt *broker.Event) error {
	if _, err := s.instance(evt.InstanceID); err != nil {
		return nil
	}
	go func() {
		if err := s.RefreshAll(context.Background(), evt.InstanceID); err != nil {
			s.opts.logger.Warnf("refresh after connect %s: %v", evt.InstanceID, err)
		}
	}()
	return nil
}

func (s *Syncer) run(ctx context.Context) {
	defer close(s.doneChan)

	var refreshC, sweepC <-chan time.Time
	if s.opts.refreshInterval > 0 {
		t := time.NewTicker(s.opts.refreshInterval)
		defer t.Stop()
		refreshC = t.C
	}
	if s.opts.sweepInterval > 0 {
		t := time.NewTicker(s.opts.sweepInterval)
		defer t.Stop()
		sweepC = t.C
	}

	for {
		select {
		case <-s.exitChan:
			return
		case <-ctx.Done():
			return
		case <-refreshC:
			for _, ins := range s.listInstances() {
				if err := s.RefreshAll(ctx, ins.id); err != nil {
					s.opts.logger.Warnf("periodic refresh %s: %v", ins.id, err)
				}
			}
		case <-sweepC:
			for _, ins := range s.listInstances() {
				ins.mu.Lock()
				n := ins.orders.SweepTerminal(s.opts.terminalTTL)
				ins.mu.Unlock()
				if n > 0 {
					s.opts.logger.Infof("instance %s swept %d terminal orders", ins.id, n)
				}
			}
		}
	}
}

func (s *Syncer) GetOrder(instanceID, orderID string) (exchange.Order, error) {
	ins, err := s.instance(instanceID)
	if err != nil {
		return exchange.Order{}, err
	}
	o, ok := ins.orders.Get(orderID)
	if !ok {
		return exchange.Order{}, exchange.ErrOrderNotFound
	}
	return o, nil
}

func (s *Syncer) ActiveOrders(instanceID string) ([]exchange.Order, error) {
	ins, err := s.instance(instanceID)
	if err != nil {
		return nil, err
	}
	return ins.orders.ListActive(), nil
}

func (s *Syncer) OrdersBySymbol(instanceID, symbol string) ([]exchange.Order, error) {
	ins, err := s.instance(instanceID)
	if err != nil {
		return nil, err
	}
	return ins.orders.ListBySymbol(symbol), nil
}

func (s *Syncer) GetPosition(instanceID, symbol string) (exchange.Position, error) {
	ins, err := s.instance(instanceID)
	if err != nil {
		return exchange.Position{}, err
	}
	p, ok := ins.positions.Get(symbol)
	if !ok {
		return exchange.Position{}, exchange.ErrPositionNotFound
	}
	return p, nil
}

func (s *Syncer) Positions(instanceID string) ([]exchange.Position, error) {
	ins, err := s.instance(instanceID)
	if err != nil {
		return nil, err
	}
	return ins.positions.List(), nil
}

func (s *Syncer) GetAccountSummary(instanceID, currency string) (exchange.AccountSummary, error) {
	ins, err := s.instance(instanceID)
	if err != nil {
		return exchange.AccountSummary{}, err
	}
	a, ok := ins.accounts.Get(currency)
	if !ok {
		return exchange.AccountSummary{}, exchange.ErrAccountNotFound
	}
	return a, nil
}

func (s *Syncer) AccountSummaries(instanceID string) ([]exchange.AccountSummary, error) {
	ins, err := s.instance(instanceID)
	if err != nil {
		return nil, err
	}
	return ins.accounts.List(), nil
}

func (s *Syncer) Stats() syncmanager.Stats {
	st := syncmanager.Stats{
		Evicted: s.evicted.Load(),
		Swept:   s.swept.Load(),
		Ignored: s.ignored.Load(),
	}
	for _, ins := range s.listInstances() {
		st.Instances++
		st.Orders = addStats(st.Orders, ins.orders.Stats())
		st.Positions = addStats(st.Positions, ins.positions.Stats())
		st.Accounts = addStats(st.Accounts, ins.accounts.Stats())
	}
	return st
}

func (s *Syncer) instance(instanceID string) (*instanceState, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ins, ok := s.instances[instanceID]
	if !ok {
		return nil, exchange.ErrInstanceUnknown
	}
	return ins, nil
}

func (s *Syncer) listInstances() []*instanceState {
	s.mux.RLock()
	defer s.mux.RUnlock()
	out := make([]*instanceState, 0, len(s.instances))
	for _, ins := range s.instances {
		out = append(out, ins)
	}
	return out
}

func addStats(a, b statecache.Stats) statecache.Stats {
	a.Total += b.Total
	a.Active += b.Active
	a.Terminal += b.Terminal
	return a
}

func (s *Syncer) publishEviction(instanceID, kind, key string, reason statecache.EvictReason) {
	if s.opts.bus == nil {
		return
	}
	evt := broker.NewEvent(broker.CacheEvictedEvent, instanceID)
	evt.Eviction = &broker.EvictionMeta{
		Kind:   kind,
		Key:    key,
		Reason: string(reason),
	}
	s.opts.bus.Publish(context.Background(), evt)
}
