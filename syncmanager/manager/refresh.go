package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/exchange"
	"github.com/go-gotop/statesync/statecache"
)

// RefreshAll 依次对账订单, 仓位, 账户, 三类都执行完再汇总错误
func (s *Syncer) RefreshAll(ctx context.Context, instanceID string) error {
	return errors.Join(
		s.RefreshOrders(ctx, instanceID),
		s.RefreshPositions(ctx, instanceID),
		s.RefreshAccounts(ctx, instanceID),
	)
}

// RefreshOrders 拉取订单快照并与缓存对账。
// 差异在锁外计算, 落库时逐项复核, 与同时到达的推送以后写者为准。
func (s *Syncer) RefreshOrders(ctx context.Context, instanceID string) error {
	ctx, span := s.startRefreshSpan(ctx, instanceID, kindOrder)
	defer span.End()

	ins, err := s.instance(instanceID)
	if err != nil {
		return spanError(span, err)
	}
	if err := s.waitSnapshot(ctx); err != nil {
		return spanError(span, err)
	}

	start := time.Now()
	snapshot, err := ins.provider.ActiveOrders(ctx, instanceID)
	if err != nil {
		return spanError(span, fmt.Errorf("fetch order snapshot: %w", err))
	}

	delta := statecache.CompareOrders(ins.orders.ListActive(), snapshot)

	ins.mu.Lock()
	var created, updated, removed int
	for _, o := range delta.ToDelete {
		removed += s.closeVanishedOrder(ctx, ins, o)
	}
	for _, o := range delta.ToUpdate {
		c, u := s.reconcileOrder(ctx, ins, o)
		created += c
		updated += u
	}
	for _, o := range delta.ToCreate {
		c, u := s.reconcileOrder(ctx, ins, o)
		created += c
		updated += u
	}
	ins.mu.Unlock()

	s.finishRefresh(ctx, span, instanceID, kindOrder, created, updated, removed, time.Since(start))
	return nil
}

// RefreshPositions 拉取仓位快照并与缓存对账, 快照里的平仓仓位视为不存在
func (s *Syncer) RefreshPositions(ctx context.Context, instanceID string) error {
	ctx, span := s.startRefreshSpan(ctx, instanceID, kindPosition)
	defer span.End()

	ins, err := s.instance(instanceID)
	if err != nil {
		return spanError(span, err)
	}
	if err := s.waitSnapshot(ctx); err != nil {
		return spanError(span, err)
	}

	start := time.Now()
	snapshot, err := ins.provider.Positions(ctx, instanceID)
	if err != nil {
		return spanError(span, fmt.Errorf("fetch position snapshot: %w", err))
	}

	delta := statecache.ComparePositions(ins.positions.List(), snapshot, s.opts.pnlEpsilon)

	ins.mu.Lock()
	var created, updated, removed int
	for _, p := range delta.ToDelete {
		removed += s.closeVanishedPosition(ctx, ins, p)
	}
	for _, p := range delta.ToUpdate {
		c, u := s.reconcilePosition(ctx, ins, p)
		created += c
		updated += u
	}
	for _, p := range delta.ToCreate {
		c, u := s.reconcilePosition(ctx, ins, p)
		created += c
		updated += u
	}
	ins.mu.Unlock()

	s.finishRefresh(ctx, span, instanceID, kindPosition, created, updated, removed, time.Since(start))
	return nil
}

// RefreshAccounts 拉取账户摘要快照并与缓存对账
func (s *Syncer) RefreshAccounts(ctx context.Context, instanceID string) error {
	ctx, span := s.startRefreshSpan(ctx, instanceID, kindAccount)
	defer span.End()

	ins, err := s.instance(instanceID)
	if err != nil {
		return spanError(span, err)
	}
	if err := s.waitSnapshot(ctx); err != nil {
		return spanError(span, err)
	}

	start := time.Now()
	snapshot, err := ins.provider.AccountSummaries(ctx, instanceID)
	if err != nil {
		return spanError(span, fmt.Errorf("fetch account snapshot: %w", err))
	}

	delta := statecache.CompareAccounts(ins.accounts.List(), snapshot, s.opts.pnlEpsilon)

	ins.mu.Lock()
	var created, updated, removed int
	for _, a := range delta.ToDelete {
		if _, ok := ins.accounts.Get(a.Currency); !ok {
			continue
		}
		ins.accounts.Remove(a.Currency)
		delete(ins.marginLevels, a.Currency)
		removed++
	}
	for _, a := range delta.ToUpdate {
		c, u := s.reconcileAccount(ctx, ins, a)
		created += c
		updated += u
	}
	for _, a := range delta.ToCreate {
		c, u := s.reconcileAccount(ctx, ins, a)
		created += c
		updated += u
	}
	ins.mu.Unlock()

	s.finishRefresh(ctx, span, instanceID, kindAccount, created, updated, removed, time.Since(start))
	return nil
}

// closeVanishedOrder 处理缓存有而快照无的活跃订单: 按最后已知成交量
// 推断终态, 已吃满按已成交收束, 否则按已撤销收束。
func (s *Syncer) closeVanishedOrder(ctx context.Context, ins *instanceState, o exchange.Order) int {
	cur, ok := ins.orders.Get(o.OrderID)
	if !ok || cur.State.Terminal() {
		return 0
	}
	final := cur
	evtType := broker.OrderCanceledEvent
	final.State = exchange.OrderStateCanceled
	if cur.FullyFilled() {
		final.State = exchange.OrderStateFilled
		evtType = broker.OrderFilledEvent
	}
	final.UpdatedAt = time.Now().UnixMilli()
	ins.orders.Upsert(final)
	prev := cur
	s.publishOrder(ctx, evtType, ins.id, final, &prev, decimal.Zero)
	return 1
}

// closeVanishedPosition 处理缓存有而快照无的仓位, 收束为平仓
func (s *Syncer) closeVanishedPosition(ctx context.Context, ins *instanceState, p exchange.Position) int {
	cur, ok := ins.positions.Get(p.Symbol)
	if !ok || cur.Flat() {
		return 0
	}
	closed := cur
	closed.Size = decimal.Zero
	closed.UnrealizedPnL = decimal.Zero
	closed.UpdatedAt = time.Now().UnixMilli()
	ins.positions.Upsert(closed)
	prev := cur
	s.publishPosition(ctx, broker.PositionClosedEvent, ins.id, closed, &prev)
	return 1
}

// reconcileOrder 对账落库一条快照订单, 返回 (新建数, 更新数)。
// 快照行是权威全量, 不走零值继承合并, 仅钉住首见创建时间。
func (s *Syncer) reconcileOrder(ctx context.Context, ins *instanceState, o exchange.Order) (int, int) {
	cur, ok := ins.orders.Get(o.OrderID)
	next := o
	var prevPtr *exchange.Order
	if ok {
		if cur.State.Terminal() {
			// 拉取快照期间推送已收束该订单, 快照行过期
			return 0, 0
		}
		if !cur.NeedsUpdate(o) {
			return 0, 0
		}
		if cur.CreatedAt > 0 {
			next.CreatedAt = cur.CreatedAt
		}
		p := cur
		prevPtr = &p
	}
	evtType := classifyOrder(cur, next, ok)
	if evtType == "" {
		s.ignored.Add(1)
		s.opts.logger.Warnf("instance %s: snapshot order %s has unrecognized state %q", ins.id, next.OrderID, next.State)
		return 0, 0
	}
	ins.orders.Upsert(next)
	s.publishOrder(ctx, evtType, ins.id, next, prevPtr, decimal.Zero)
	if ok {
		return 0, 1
	}
	return 1, 0
}

// reconcilePosition 对账落库一条快照仓位, 返回 (新建数, 更新数)
func (s *Syncer) reconcilePosition(ctx context.Context, ins *instanceState, p exchange.Position) (int, int) {
	cur, ok := ins.positions.Get(p.Symbol)
	if !ok {
		if p.Flat() {
			return 0, 0
		}
		ins.positions.Upsert(p)
		s.publishPosition(ctx, broker.PositionOpenedEvent, ins.id, p, nil)
		return 1, 0
	}
	if !cur.NeedsUpdate(p, s.opts.pnlEpsilon) {
		return 0, 0
	}
	next := p
	evtType := broker.PositionUpdatedEvent
	if cur.Reversed(next) {
		evtType = broker.PositionReversedEvent
	}
	ins.positions.Upsert(next)
	prev := cur
	s.publishPosition(ctx, evtType, ins.id, next, &prev)
	return 0, 1
}

// reconcileAccount 对账落库一条账户摘要, 返回 (新建数, 更新数)
func (s *Syncer) reconcileAccount(ctx context.Context, ins *instanceState, a exchange.AccountSummary) (int, int) {
	cur, ok := ins.accounts.Get(a.Currency)
	next := a
	var prevPtr *exchange.AccountSummary
	if ok {
		if !cur.NeedsUpdate(a, s.opts.pnlEpsilon) {
			return 0, 0
		}
		p := cur
		prevPtr = &p
	}
	ins.accounts.Upsert(next)
	s.publishAccount(ctx, ins.id, next, prevPtr)
	s.watchMargin(ctx, ins, next)
	if ok {
		return 0, 1
	}
	return 1, 0
}

// waitSnapshot 阻塞等待快照配额
func (s *Syncer) waitSnapshot(ctx context.Context) error {
	if s.opts.limiter == nil {
		return nil
	}
	if err := s.opts.limiter.WaitSnapshot(ctx); err != nil {
		return fmt.Errorf("wait snapshot quota: %w", err)
	}
	return nil
}

func (s *Syncer) startRefreshSpan(ctx context.Context, instanceID, kind string) (context.Context, trace.Span) {
	return s.opts.tracer.Start(ctx, "syncmanager.refresh",
		trace.WithAttributes(
			attribute.String("instance.id", instanceID),
			attribute.String("sync.kind", kind),
		))
}

func (s *Syncer) finishRefresh(ctx context.Context, span trace.Span, instanceID, kind string, created, updated, removed int, elapsed time.Duration) {
	span.SetAttributes(
		attribute.Int("sync.created", created),
		attribute.Int("sync.updated", updated),
		attribute.Int("sync.removed", removed),
	)
	s.opts.logger.Debugf("instance %s %s reconciled, created: %d, updated: %d, removed: %d, elapsed: %s",
		instanceID, kind, created, updated, removed, elapsed)
	s.publishReconcile(ctx, instanceID, kind, created, updated, removed, elapsed)
}

func (s *Syncer) publishReconcile(ctx context.Context, instanceID, kind string, created, updated, removed int, elapsed time.Duration) {
	if s.opts.bus == nil {
		return
	}
	evt := broker.NewEvent(broker.ReconciledEvent, instanceID)
	evt.Reconcile = &broker.ReconcileMeta{
		Kind:    kind,
		Created: created,
		Updated: updated,
		Removed: removed,
		Elapsed: elapsed,
	}
	s.opts.bus.Publish(ctx, evt)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
