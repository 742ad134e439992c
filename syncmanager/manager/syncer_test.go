package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/exchange"
	"github.com/go-gotop/statesync/syncmanager"
)

const testInstance = "acct-main"

// fakeProvider 可编程快照源
type fakeProvider struct {
	mu        sync.Mutex
	orders    []exchange.Order
	positions []exchange.Position
	accounts  []exchange.AccountSummary
	failWith  error
	fetches   int
}

func (f *fakeProvider) ActiveOrders(_ context.Context, _ string) ([]exchange.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return append([]exchange.Order(nil), f.orders...), nil
}

func (f *fakeProvider) Positions(_ context.Context, _ string) ([]exchange.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return append([]exchange.Position(nil), f.positions...), nil
}

func (f *fakeProvider) AccountSummaries(_ context.Context, _ string) ([]exchange.AccountSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return append([]exchange.AccountSummary(nil), f.accounts...), nil
}

func (f *fakeProvider) set(orders []exchange.Order, positions []exchange.Position, accounts []exchange.AccountSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
	f.positions = positions
	f.accounts = accounts
}

func (f *fakeProvider) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *fakeProvider) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func orderPush(id string, state exchange.OrderState, filled string) *exchange.OrderUpdate {
	return &exchange.OrderUpdate{
		InstanceID:      testInstance,
		Exchange:        exchange.MockExchange,
		OrderID:         id,
		ClientOrderID:   "c-" + id,
		Symbol:          exchange.BTCUSDT,
		Instrument:      exchange.InstrumentTypeFutures,
		Side:            exchange.SideTypeBuy,
		PositionSide:    exchange.PositionSideLong,
		Type:            exchange.OrderTypeLimit,
		TimeInForce:     exchange.TimeInForceGTC,
		State:           state,
		Volume:          decimal.NewFromInt(10),
		FilledVolume:    decimal.RequireFromString(filled),
		Price:           decimal.NewFromInt(65000),
		TransactionTime: time.Now().UnixMilli(),
	}
}

func positionPush(symbol string, side exchange.PositionSide, size string) *exchange.PositionUpdate {
	return &exchange.PositionUpdate{
		InstanceID:      testInstance,
		Exchange:        exchange.MockExchange,
		Symbol:          symbol,
		Instrument:      exchange.InstrumentTypeFutures,
		Side:            side,
		Size:            decimal.RequireFromString(size),
		EntryPrice:      decimal.NewFromInt(64000),
		MarkPrice:       decimal.NewFromInt(64100),
		Leverage:        decimal.NewFromInt(10),
		TransactionTime: time.Now().UnixMilli(),
	}
}

func accountPush(currency, equity, maint string) *exchange.AccountUpdate {
	return &exchange.AccountUpdate{
		InstanceID:      testInstance,
		Exchange:        exchange.MockExchange,
		Currency:        currency,
		Equity:          decimal.RequireFromString(equity),
		Balance:         decimal.RequireFromString(equity),
		Available:       decimal.RequireFromString(equity),
		MaintMargin:     decimal.RequireFromString(maint),
		TransactionTime: time.Now().UnixMilli(),
	}
}

type syncerTestSuite struct {
	suite.Suite

	ctx      context.Context
	bus      *broker.EventBus
	events   <-chan *broker.Event
	unsub    func()
	provider *fakeProvider
	syncer   *Syncer
}

func TestSyncerSuite(t *testing.T) {
	suite.Run(t, new(syncerTestSuite))
}

func (s *syncerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.bus = broker.NewBus()
	s.events, s.unsub = s.bus.Subscribe(256)
	s.provider = &fakeProvider{}
	s.syncer = NewSyncer(WithBus(s.bus))
	s.Require().NoError(s.syncer.AddInstance(s.ctx, &syncmanager.InstanceRequest{
		ID:       testInstance,
		Exchange: exchange.MockExchange,
		Provider: s.provider,
	}))
	s.drainEvents()
}

func (s *syncerTestSuite) TearDownTest() {
	s.Require().NoError(s.syncer.Shutdown())
	s.unsub()
	s.Require().NoError(s.bus.Close())
}

// drainEvents 取走当前已入队的全部事件。
// 推送路径的发布在 Apply 返回前同步完成, 无需等待。
func (s *syncerTestSuite) drainEvents() []*broker.Event {
	var out []*broker.Event
	for {
		select {
		case evt := <-s.events:
			out = append(out, evt)
		default:
			return out
		}
	}
}

func (s *syncerTestSuite) expectTypes(types ...broker.EventType) []*broker.Event {
	evts := s.drainEvents()
	got := make([]broker.EventType, 0, len(evts))
	for _, evt := range evts {
		got = append(got, evt.Type)
	}
	s.Require().Equal(types, got)
	return evts
}

func (s *syncerTestSuite) TestOrderLifecyclePush() {
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderStateNew, "0")))
	evts := s.expectTypes(broker.OrderCreatedEvent)
	s.Nil(evts[0].Order.Previous)
	s.Equal(testInstance, evts[0].InstanceID)

	part := orderPush("o-1", exchange.OrderStatePartiallyFilled, "4")
	part.LatestVolume = decimal.NewFromInt(4)
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, part))
	evts = s.expectTypes(broker.OrderPartiallyFilledEvent)
	s.Equal(exchange.OrderStateNew, evts[0].Order.Previous.State)
	s.True(evts[0].Order.LatestVolume.Equal(decimal.NewFromInt(4)))

	fill := orderPush("o-1", exchange.OrderStateFilled, "10")
	fill.LatestVolume = decimal.NewFromInt(6)
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, fill))
	evts = s.expectTypes(broker.OrderFilledEvent)
	s.Equal(exchange.OrderStatePartiallyFilled, evts[0].Order.Previous.State)

	got, err := s.syncer.GetOrder(testInstance, "o-1")
	s.Require().NoError(err)
	s.Equal(exchange.OrderStateFilled, got.State)

	active, err := s.syncer.ActiveOrders(testInstance)
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *syncerTestSuite) TestDuplicatePushNoEvent() {
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderStateNew, "0")))
	s.drainEvents()

	// 重复推送只有事件时间不同, 语义等价
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderStateNew, "0")))
	s.Empty(s.drainEvents())
	s.Zero(s.syncer.Stats().Ignored)
}

func (s *syncerTestSuite) TestUnknownOrderStateIgnored() {
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderStateNew, "0")))
	s.drainEvents()

	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderState("PENDING_WEIRD"), "0")))
	s.Empty(s.drainEvents())

	got, err := s.syncer.GetOrder(testInstance, "o-1")
	s.Require().NoError(err)
	s.Equal(exchange.OrderStateNew, got.State)
	s.Equal(uint64(1), s.syncer.Stats().Ignored)

	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, nil))
	s.Equal(uint64(2), s.syncer.Stats().Ignored)
}

func (s *syncerTestSuite) TestTerminalStateAbsorbsLateFrames() {
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderStateFilled, "10")))
	s.drainEvents()

	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderStateNew, "0")))
	s.Empty(s.drainEvents())

	got, err := s.syncer.GetOrder(testInstance, "o-1")
	s.Require().NoError(err)
	s.Equal(exchange.OrderStateFilled, got.State)
}

func (s *syncerTestSuite) TestPushMergeInheritsOmittedFields() {
	first := orderPush("o-1", exchange.OrderStateNew, "0")
	first.TransactionTime = 1000
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, first))
	s.drainEvents()

	partial := &exchange.OrderUpdate{
		InstanceID:      testInstance,
		OrderID:         "o-1",
		State:           exchange.OrderStatePartiallyFilled,
		FilledVolume:    decimal.NewFromInt(3),
		TransactionTime: 2000,
	}
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, partial))
	s.expectTypes(broker.OrderPartiallyFilledEvent)

	got, err := s.syncer.GetOrder(testInstance, "o-1")
	s.Require().NoError(err)
	s.Equal(exchange.SideTypeBuy, got.Side)
	s.Equal(exchange.BTCUSDT, got.Symbol)
	s.True(got.Volume.Equal(decimal.NewFromInt(10)))
	s.True(got.Price.Equal(decimal.NewFromInt(65000)))
	s.True(got.FilledVolume.Equal(decimal.NewFromInt(3)))
	s.Equal(int64(1000), got.CreatedAt)
	s.Equal(int64(2000), got.UpdatedAt)
}

func (s *syncerTestSuite) TestPositionLifecyclePush() {
	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, positionPush(exchange.BTCUSDT, exchange.PositionSideLong, "5")))
	evts := s.expectTypes(broker.PositionOpenedEvent)
	s.Nil(evts[0].Position.Previous)

	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, positionPush(exchange.BTCUSDT, exchange.PositionSideLong, "8")))
	evts = s.expectTypes(broker.PositionUpdatedEvent)
	s.True(evts[0].Position.Previous.Size.Equal(decimal.NewFromInt(5)))

	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, positionPush(exchange.BTCUSDT, exchange.PositionSideLong, "0")))
	evts = s.expectTypes(broker.PositionClosedEvent)
	s.True(evts[0].Position.Position.Flat())
	s.True(evts[0].Position.Previous.Size.Equal(decimal.NewFromInt(8)))

	_, err := s.syncer.GetPosition(testInstance, exchange.BTCUSDT)
	s.Require().ErrorIs(err, exchange.ErrPositionNotFound)
}

func (s *syncerTestSuite) TestFlatPushForUnknownPositionIgnored() {
	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, positionPush(exchange.ETHUSDT, exchange.PositionSideLong, "0")))
	s.Empty(s.drainEvents())
}

func (s *syncerTestSuite) TestPositionReversalSinglePush() {
	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, positionPush(exchange.BTCUSDT, exchange.PositionSideLong, "5")))
	s.drainEvents()

	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, positionPush(exchange.BTCUSDT, exchange.PositionSideShort, "3")))
	evts := s.expectTypes(broker.PositionReversedEvent)
	s.Equal(exchange.PositionSideLong, evts[0].Position.Previous.Side)
	s.Equal(exchange.PositionSideShort, evts[0].Position.Position.Side)

	got, err := s.syncer.GetPosition(testInstance, exchange.BTCUSDT)
	s.Require().NoError(err)
	s.True(got.Size.Equal(decimal.NewFromInt(3)))
}

func (s *syncerTestSuite) TestMarginHysteresis() {
	apply := func(maint string, want ...broker.EventType) []*broker.Event {
		s.Require().NoError(s.syncer.ApplyAccountUpdate(s.ctx, accountPush("USDT", "10000", maint)))
		return s.expectTypes(want...)
	}

	apply("6000", broker.AccountUpdatedEvent)

	evts := apply("8000", broker.AccountUpdatedEvent, broker.MarginWarningEvent)
	s.Equal("WARNING", evts[1].Margin.Level)
	s.True(evts[1].Margin.Ratio.Equal(decimal.RequireFromString("0.8")))

	apply("8500", broker.AccountUpdatedEvent)

	evts = apply("9500", broker.AccountUpdatedEvent, broker.MarginCriticalEvent)
	s.Equal("CRITICAL", evts[1].Margin.Level)

	// 危险档回落到两档之间不降级
	apply("8000", broker.AccountUpdatedEvent)

	evts = apply("5000", broker.AccountUpdatedEvent, broker.MarginRecoveredEvent)
	s.Equal("NORMAL", evts[1].Margin.Level)
}

func (s *syncerTestSuite) TestMarginDirectCritical() {
	s.Require().NoError(s.syncer.ApplyAccountUpdate(s.ctx, accountPush("BTC", "100", "95")))
	evts := s.expectTypes(broker.AccountUpdatedEvent, broker.MarginCriticalEvent)
	s.Equal("BTC", evts[1].Margin.Currency)
}

func (s *syncerTestSuite) TestAccountDuplicateWithinEpsilonNoEvent() {
	s.Require().NoError(s.syncer.ApplyAccountUpdate(s.ctx, accountPush("USDT", "10000", "100")))
	s.drainEvents()

	s.Require().NoError(s.syncer.ApplyAccountUpdate(s.ctx, accountPush("USDT", "10000.005", "100")))
	s.Empty(s.drainEvents())
}

func (s *syncerTestSuite) TestRefreshOrdersReconciles() {
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("A", exchange.OrderStateNew, "0")))
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("B", exchange.OrderStatePartiallyFilled, "4")))
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("C", exchange.OrderStatePartiallyFilled, "10")))
	s.drainEvents()

	s.provider.set([]exchange.Order{
		orderPush("B", exchange.OrderStatePartiallyFilled, "6").ToOrder(),
		orderPush("D", exchange.OrderStateNew, "0").ToOrder(),
	}, nil, nil)

	s.Require().NoError(s.syncer.RefreshOrders(s.ctx, testInstance))

	// 消失的活跃订单先收束, 再覆盖差异, 最后补缺
	evts := s.expectTypes(
		broker.OrderCanceledEvent,
		broker.OrderFilledEvent,
		broker.OrderPartiallyFilledEvent,
		broker.OrderCreatedEvent,
		broker.ReconciledEvent,
	)
	s.Equal("A", evts[0].Order.Order.OrderID)
	s.Equal("C", evts[1].Order.Order.OrderID)
	s.Equal("B", evts[2].Order.Order.OrderID)
	s.Equal("D", evts[3].Order.Order.OrderID)

	rec := evts[4].Reconcile
	s.Equal("ORDER", rec.Kind)
	s.Equal(1, rec.Created)
	s.Equal(1, rec.Updated)
	s.Equal(2, rec.Removed)

	a, err := s.syncer.GetOrder(testInstance, "A")
	s.Require().NoError(err)
	s.Equal(exchange.OrderStateCanceled, a.State)

	c, err := s.syncer.GetOrder(testInstance, "C")
	s.Require().NoError(err)
	s.Equal(exchange.OrderStateFilled, c.State)

	b, err := s.syncer.GetOrder(testInstance, "B")
	s.Require().NoError(err)
	s.True(b.FilledVolume.Equal(decimal.NewFromInt(6)))

	active, err := s.syncer.ActiveOrders(testInstance)
	s.Require().NoError(err)
	s.Len(active, 2)
}

func (s *syncerTestSuite) TestRefreshPositionsReconciles() {
	btc := positionPush(exchange.BTCUSDT, exchange.PositionSideLong, "5")
	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, btc))
	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, positionPush(exchange.ETHUSDT, exchange.PositionSideLong, "2")))
	s.drainEvents()

	s.provider.set(nil, []exchange.Position{
		btc.ToPosition(),
		positionPush(exchange.SOLUSDT, exchange.PositionSideShort, "1").ToPosition(),
		positionPush(exchange.DOGEUSDT, exchange.PositionSideLong, "0").ToPosition(),
	}, nil)

	s.Require().NoError(s.syncer.RefreshPositions(s.ctx, testInstance))

	evts := s.expectTypes(broker.PositionClosedEvent, broker.PositionOpenedEvent, broker.ReconciledEvent)
	s.Equal(exchange.ETHUSDT, evts[0].Position.Position.Symbol)
	s.Equal(exchange.SOLUSDT, evts[1].Position.Position.Symbol)

	rec := evts[2].Reconcile
	s.Equal("POSITION", rec.Kind)
	s.Equal(1, rec.Created)
	s.Equal(0, rec.Updated)
	s.Equal(1, rec.Removed)

	_, err := s.syncer.GetPosition(testInstance, exchange.ETHUSDT)
	s.Require().ErrorIs(err, exchange.ErrPositionNotFound)
	_, err = s.syncer.GetPosition(testInstance, exchange.DOGEUSDT)
	s.Require().ErrorIs(err, exchange.ErrPositionNotFound)

	all, err := s.syncer.Positions(testInstance)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *syncerTestSuite) TestRefreshAccountsReconciles() {
	s.Require().NoError(s.syncer.ApplyAccountUpdate(s.ctx, accountPush("USDT", "10000", "100")))
	s.Require().NoError(s.syncer.ApplyAccountUpdate(s.ctx, accountPush("USDC", "5000", "50")))
	s.drainEvents()

	s.provider.set(nil, nil, []exchange.AccountSummary{
		accountPush("USDT", "12000", "100").ToAccountSummary(),
		accountPush("BTC", "2", "0").ToAccountSummary(),
	})

	s.Require().NoError(s.syncer.RefreshAccounts(s.ctx, testInstance))

	evts := s.expectTypes(broker.AccountUpdatedEvent, broker.AccountUpdatedEvent, broker.ReconciledEvent)
	s.Equal("USDT", evts[0].Account.Account.Currency)
	s.Equal("BTC", evts[1].Account.Account.Currency)

	rec := evts[2].Reconcile
	s.Equal("ACCOUNT", rec.Kind)
	s.Equal(1, rec.Created)
	s.Equal(1, rec.Updated)
	s.Equal(1, rec.Removed)

	_, err := s.syncer.GetAccountSummary(testInstance, "USDC")
	s.Require().ErrorIs(err, exchange.ErrAccountNotFound)

	all, err := s.syncer.AccountSummaries(testInstance)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("BTC", all[0].Currency)
	s.Equal("USDT", all[1].Currency)
}

func (s *syncerTestSuite) TestRefreshProviderErrorPropagates() {
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("A", exchange.OrderStateNew, "0")))
	s.drainEvents()

	s.provider.fail(errors.New("venue down"))

	err := s.syncer.RefreshOrders(s.ctx, testInstance)
	s.Require().ErrorContains(err, "fetch order snapshot")
	s.Require().ErrorContains(err, "venue down")
	s.Empty(s.drainEvents())

	got, err := s.syncer.GetOrder(testInstance, "A")
	s.Require().NoError(err)
	s.Equal(exchange.OrderStateNew, got.State)

	s.Require().ErrorContains(s.syncer.RefreshAll(s.ctx, testInstance), "venue down")
}

func (s *syncerTestSuite) TestRefreshUnknownInstance() {
	s.Require().ErrorIs(s.syncer.RefreshOrders(s.ctx, "ghost"), exchange.ErrInstanceUnknown)
	s.Require().ErrorIs(s.syncer.RefreshAll(s.ctx, "ghost"), exchange.ErrInstanceUnknown)
}

func (s *syncerTestSuite) TestRefreshOnConnect() {
	s.provider.set([]exchange.Order{orderPush("A", exchange.OrderStateNew, "0").ToOrder()}, nil, nil)
	s.Require().NoError(s.syncer.Start(s.ctx))

	s.bus.Publish(s.ctx, broker.NewEvent(broker.ConnectedEvent, testInstance))

	s.Require().Eventually(func() bool {
		_, err := s.syncer.GetOrder(testInstance, "A")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	// 未注册实例的连接事件不触发对账
	before := s.provider.fetchCount()
	s.bus.Publish(s.ctx, broker.NewEvent(broker.ConnectedEvent, "ghost"))
	time.Sleep(50 * time.Millisecond)
	s.Equal(before, s.provider.fetchCount())
}

func (s *syncerTestSuite) TestPeriodicRefresh() {
	provider := &fakeProvider{}
	provider.set(nil, nil, []exchange.AccountSummary{accountPush("USDT", "10000", "100").ToAccountSummary()})

	syncer := NewSyncer(WithRefreshInterval(20 * time.Millisecond))
	s.Require().NoError(syncer.AddInstance(s.ctx, &syncmanager.InstanceRequest{
		ID:       testInstance,
		Exchange: exchange.MockExchange,
		Provider: provider,
	}))
	s.Require().NoError(syncer.Start(s.ctx))
	defer func() { s.Require().NoError(syncer.Shutdown()) }()

	s.Require().Eventually(func() bool {
		_, err := syncer.GetAccountSummary(testInstance, "USDT")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	s.GreaterOrEqual(provider.fetchCount(), 3)
}

func (s *syncerTestSuite) TestSweepTerminalLoop() {
	syncer := NewSyncer(
		WithTerminalTTL(time.Millisecond),
		WithSweepInterval(10*time.Millisecond),
	)
	s.Require().NoError(syncer.AddInstance(s.ctx, &syncmanager.InstanceRequest{
		ID:       testInstance,
		Exchange: exchange.MockExchange,
		Provider: s.provider,
	}))
	s.Require().NoError(syncer.ApplyOrderUpdate(s.ctx, orderPush("t-1", exchange.OrderStateFilled, "10")))
	s.Require().NoError(syncer.Start(s.ctx))
	defer func() { s.Require().NoError(syncer.Shutdown()) }()

	s.Require().Eventually(func() bool {
		_, err := syncer.GetOrder(testInstance, "t-1")
		return errors.Is(err, exchange.ErrOrderNotFound)
	}, 2*time.Second, 10*time.Millisecond)
	s.Equal(uint64(1), syncer.Stats().Swept)
}

func (s *syncerTestSuite) TestCapacityEvictionPublishes() {
	syncer := NewSyncer(WithBus(s.bus), WithMaxOrderEntries(2))
	s.Require().NoError(syncer.AddInstance(s.ctx, &syncmanager.InstanceRequest{
		ID:       testInstance,
		Exchange: exchange.MockExchange,
		Provider: s.provider,
	}))

	s.Require().NoError(syncer.ApplyOrderUpdate(s.ctx, orderPush("t-1", exchange.OrderStateFilled, "10")))
	s.Require().NoError(syncer.ApplyOrderUpdate(s.ctx, orderPush("t-2", exchange.OrderStateCanceled, "0")))
	s.drainEvents()

	s.Require().NoError(syncer.ApplyOrderUpdate(s.ctx, orderPush("a-1", exchange.OrderStateNew, "0")))

	evts := s.expectTypes(broker.CacheEvictedEvent, broker.OrderCreatedEvent)
	s.Equal("ORDER", evts[0].Eviction.Kind)
	s.Equal("t-1", evts[0].Eviction.Key)
	s.Equal("CAPACITY", evts[0].Eviction.Reason)

	s.Equal(uint64(1), syncer.Stats().Evicted)
	_, err := syncer.GetOrder(testInstance, "t-1")
	s.Require().ErrorIs(err, exchange.ErrOrderNotFound)
	s.Require().NoError(syncer.Shutdown())
}

func (s *syncerTestSuite) TestQueriesAndStats() {
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderStateNew, "0")))
	s.Require().NoError(s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-2", exchange.OrderStateFilled, "10")))
	s.Require().NoError(s.syncer.ApplyPositionUpdate(s.ctx, positionPush(exchange.BTCUSDT, exchange.PositionSideLong, "5")))
	s.Require().NoError(s.syncer.ApplyAccountUpdate(s.ctx, accountPush("USDT", "10000", "100")))

	bySymbol, err := s.syncer.OrdersBySymbol(testInstance, exchange.BTCUSDT)
	s.Require().NoError(err)
	s.Len(bySymbol, 2)

	_, err = s.syncer.GetOrder(testInstance, "missing")
	s.Require().ErrorIs(err, exchange.ErrOrderNotFound)
	_, err = s.syncer.GetOrder("ghost", "o-1")
	s.Require().ErrorIs(err, exchange.ErrInstanceUnknown)
	_, err = s.syncer.GetPosition(testInstance, exchange.ETHUSDT)
	s.Require().ErrorIs(err, exchange.ErrPositionNotFound)
	_, err = s.syncer.GetAccountSummary(testInstance, "BTC")
	s.Require().ErrorIs(err, exchange.ErrAccountNotFound)

	st := s.syncer.Stats()
	s.Equal(1, st.Instances)
	s.Equal(2, st.Orders.Total)
	s.Equal(1, st.Orders.Active)
	s.Equal(1, st.Orders.Terminal)
	s.Equal(1, st.Positions.Total)
	s.Equal(1, st.Accounts.Total)
}

func (s *syncerTestSuite) TestInstanceRegistration() {
	s.Require().Error(s.syncer.AddInstance(s.ctx, nil))
	s.Require().Error(s.syncer.AddInstance(s.ctx, &syncmanager.InstanceRequest{ID: ""}))
	s.Require().Error(s.syncer.AddInstance(s.ctx, &syncmanager.InstanceRequest{ID: "acct-b"}))

	err := s.syncer.AddInstance(s.ctx, &syncmanager.InstanceRequest{
		ID:       testInstance,
		Exchange: exchange.MockExchange,
		Provider: s.provider,
	})
	s.Require().ErrorIs(err, ErrInstanceExists)

	s.Require().ErrorIs(s.syncer.RemoveInstance("ghost"), exchange.ErrInstanceUnknown)

	s.Require().NoError(s.syncer.RemoveInstance(testInstance))
	err = s.syncer.ApplyOrderUpdate(s.ctx, orderPush("o-1", exchange.OrderStateNew, "0"))
	s.Require().ErrorIs(err, exchange.ErrInstanceUnknown)
}

func (s *syncerTestSuite) TestShutdownRejectsFurtherUse() {
	s.Require().NoError(s.syncer.Start(s.ctx))
	s.Require().NoError(s.syncer.Shutdown())
	s.Require().NoError(s.syncer.Shutdown())

	err := s.syncer.AddInstance(s.ctx, &syncmanager.InstanceRequest{
		ID:       "acct-b",
		Exchange: exchange.MockExchange,
		Provider: s.provider,
	})
	s.Require().ErrorIs(err, ErrSyncerClosed)
	s.Require().ErrorIs(s.syncer.Start(s.ctx), ErrSyncerClosed)
}
