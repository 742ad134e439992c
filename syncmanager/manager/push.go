package manager

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/exchange"
)

// ApplyOrderUpdate 应用订单推送。
// 与缓存值语义相同的重复推送不落库不发事件, 无法识别的推送计入忽略。
func (s *Syncer) ApplyOrderUpdate(ctx context.Context, upd *exchange.OrderUpdate) error {
	if upd == nil || upd.OrderID == "" {
		s.ignored.Add(1)
		return nil
	}
	ins, err := s.instance(upd.InstanceID)
	if err != nil {
		return err
	}

	ins.mu.Lock()
	defer ins.mu.Unlock()

	prev, exists := ins.orders.Get(upd.OrderID)
	if exists && prev.State.Terminal() {
		// 终态吸收, 迟到帧不再迁移
		s.opts.logger.Debugf("instance %s: order %s already %s, late frame dropped", ins.id, prev.OrderID, prev.State)
		return nil
	}
	next := upd.ToOrder()
	if exists {
		next = mergeOrder(prev, next)
		if prev.Equal(next) {
			return nil
		}
	}

	evtType := classifyOrder(prev, next, exists)
	if evtType == "" {
		s.ignored.Add(1)
		s.opts.logger.Warnf("instance %s: unrecognized order state %q, update ignored", ins.id, next.State)
		return nil
	}

	ins.orders.Upsert(next)
	var prevPtr *exchange.Order
	if exists {
		p := prev
		prevPtr = &p
	}
	s.publishOrder(ctx, evtType, ins.id, next, prevPtr, upd.LatestVolume)
	return nil
}

// ApplyPositionUpdate 应用仓位推送。
// 方向翻转优先于普通更新, 未持有仓位推平仓直接忽略。
func (s *Syncer) ApplyPositionUpdate(ctx context.Context, upd *exchange.PositionUpdate) error {
	if upd == nil || upd.Symbol == "" {
		s.ignored.Add(1)
		return nil
	}
	ins, err := s.instance(upd.InstanceID)
	if err != nil {
		return err
	}

	ins.mu.Lock()
	defer ins.mu.Unlock()

	prev, exists := ins.positions.Get(upd.Symbol)
	next := upd.ToPosition()
	if exists {
		next = mergePosition(prev, next)
	}

	switch {
	case !exists && next.Flat():
		return nil
	case !exists:
		ins.positions.Upsert(next)
		s.publishPosition(ctx, broker.PositionOpenedEvent, ins.id, next, nil)
	case next.Flat():
		ins.positions.Upsert(next)
		s.publishPosition(ctx, broker.PositionClosedEvent, ins.id, next, &prev)
	case prev.Reversed(next):
		ins.positions.Upsert(next)
		s.publishPosition(ctx, broker.PositionReversedEvent, ins.id, next, &prev)
	case prev.NeedsUpdate(next, s.opts.pnlEpsilon):
		ins.positions.Upsert(next)
		s.publishPosition(ctx, broker.PositionUpdatedEvent, ins.id, next, &prev)
	}
	return nil
}

// ApplyAccountUpdate 应用账户摘要推送并校验保证金水位
func (s *Syncer) ApplyAccountUpdate(ctx context.Context, upd *exchange.AccountUpdate) error {
	if upd == nil || upd.Currency == "" {
		s.ignored.Add(1)
		return nil
	}
	ins, err := s.instance(upd.InstanceID)
	if err != nil {
		return err
	}

	ins.mu.Lock()
	defer ins.mu.Unlock()

	prev, exists := ins.accounts.Get(upd.Currency)
	next := upd.ToAccountSummary()
	if exists {
		next = mergeAccount(prev, next)
		if !prev.NeedsUpdate(next, s.opts.pnlEpsilon) {
			return nil
		}
	}

	ins.accounts.Upsert(next)
	var prevPtr *exchange.AccountSummary
	if exists {
		p := prev
		prevPtr = &p
	}
	s.publishAccount(ctx, ins.id, next, prevPtr)
	s.watchMargin(ctx, ins, next)
	return nil
}

// classifyOrder 按前后状态分类本次迁移, 空串表示无法识别
func classifyOrder(prev, next exchange.Order, exists bool) broker.EventType {
	switch next.State {
	case exchange.OrderStateFilled:
		return broker.OrderFilledEvent
	case exchange.OrderStateCanceled:
		return broker.OrderCanceledEvent
	case exchange.OrderStateRejected:
		return broker.OrderRejectedEvent
	case exchange.OrderStateExpired:
		return broker.OrderExpiredEvent
	case exchange.OrderStatePartiallyFilled:
		return broker.OrderPartiallyFilledEvent
	case exchange.OrderStateTriggered:
		if !exists || prev.State == exchange.OrderStateUntriggered {
			return broker.OrderTriggeredEvent
		}
		return broker.OrderUpdatedEvent
	case exchange.OrderStateNew, exchange.OrderStateUntriggered:
		if !exists {
			return broker.OrderCreatedEvent
		}
		return broker.OrderUpdatedEvent
	}
	return ""
}

// mergeOrder 用增量覆盖缓存值, 推送里缺省的字段继承缓存。
// 创建时间以首次见到的为准, 永不回退。
func mergeOrder(prev, next exchange.Order) exchange.Order {
	merged := next
	if merged.Exchange == "" {
		merged.Exchange = prev.Exchange
	}
	if merged.ClientOrderID == "" {
		merged.ClientOrderID = prev.ClientOrderID
	}
	if merged.Symbol == "" {
		merged.Symbol = prev.Symbol
	}
	if merged.Instrument == "" {
		merged.Instrument = prev.Instrument
	}
	if merged.Side == "" {
		merged.Side = prev.Side
	}
	if merged.PositionSide == "" {
		merged.PositionSide = prev.PositionSide
	}
	if merged.Type == "" {
		merged.Type = prev.Type
	}
	if merged.TimeInForce == "" {
		merged.TimeInForce = prev.TimeInForce
	}
	if merged.State == "" {
		merged.State = prev.State
	}
	if merged.Volume.IsZero() {
		merged.Volume = prev.Volume
	}
	if merged.FilledVolume.IsZero() {
		merged.FilledVolume = prev.FilledVolume
	}
	if merged.Price.IsZero() {
		merged.Price = prev.Price
	}
	if merged.TriggerPrice.IsZero() {
		merged.TriggerPrice = prev.TriggerPrice
	}
	if merged.AvgPrice.IsZero() {
		merged.AvgPrice = prev.AvgPrice
	}
	if merged.FeeAsset == "" {
		merged.FeeAsset = prev.FeeAsset
	}
	if merged.FeeCost.IsZero() {
		merged.FeeCost = prev.FeeCost
	}
	if prev.CreatedAt > 0 {
		merged.CreatedAt = prev.CreatedAt
	}
	if merged.UpdatedAt == 0 {
		merged.UpdatedAt = prev.UpdatedAt
	}
	return merged
}

// mergePosition 同 mergeOrder, 持仓数量不继承, 零就是平仓。
// 未实现盈亏同理, 开仓瞬间盈亏恰为零是真实值。
func mergePosition(prev, next exchange.Position) exchange.Position {
	merged := next
	if merged.Exchange == "" {
		merged.Exchange = prev.Exchange
	}
	if merged.Instrument == "" {
		merged.Instrument = prev.Instrument
	}
	if merged.Side == "" {
		merged.Side = prev.Side
	}
	if merged.EntryPrice.IsZero() {
		merged.EntryPrice = prev.EntryPrice
	}
	if merged.MarkPrice.IsZero() {
		merged.MarkPrice = prev.MarkPrice
	}
	if merged.Leverage.IsZero() {
		merged.Leverage = prev.Leverage
	}
	if merged.RealizedPnL.IsZero() {
		merged.RealizedPnL = prev.RealizedPnL
	}
	if merged.InitialMargin.IsZero() {
		merged.InitialMargin = prev.InitialMargin
	}
	if merged.MaintMargin.IsZero() {
		merged.MaintMargin = prev.MaintMargin
	}
	if merged.LiquidationPrice.IsZero() {
		merged.LiquidationPrice = prev.LiquidationPrice
	}
	if merged.UpdatedAt == 0 {
		merged.UpdatedAt = prev.UpdatedAt
	}
	return merged
}

// mergeAccount 推帧经常只带部分余额字段, 缺省按缓存继承。
// 真实归零由下一轮快照对账纠正, 快照路径不走合并。
func mergeAccount(prev, next exchange.AccountSummary) exchange.AccountSummary {
	merged := next
	if merged.Exchange == "" {
		merged.Exchange = prev.Exchange
	}
	if merged.Equity.IsZero() {
		merged.Equity = prev.Equity
	}
	if merged.Balance.IsZero() {
		merged.Balance = prev.Balance
	}
	if merged.Available.IsZero() {
		merged.Available = prev.Available
	}
	if merged.InitialMargin.IsZero() {
		merged.InitialMargin = prev.InitialMargin
	}
	if merged.MaintMargin.IsZero() {
		merged.MaintMargin = prev.MaintMargin
	}
	if merged.UpdatedAt == 0 {
		merged.UpdatedAt = prev.UpdatedAt
	}
	return merged
}

const (
	marginLevelNormal   = "NORMAL"
	marginLevelWarning  = "WARNING"
	marginLevelCritical = "CRITICAL"
)

// watchMargin 保证金水位迟滞判定: 上穿警戒线与危险线各报一次,
// 处于危险档时回落到两档之间不降级, 回落到警戒线以下才报恢复。
func (s *Syncer) watchMargin(ctx context.Context, ins *instanceState, acct exchange.AccountSummary) {
	ratio := acct.MarginRatio()
	prev := ins.marginLevels[acct.Currency]
	if prev == "" {
		prev = marginLevelNormal
	}

	next := prev
	switch {
	case ratio.GreaterThanOrEqual(s.opts.criticalRatio):
		next = marginLevelCritical
	case ratio.GreaterThanOrEqual(s.opts.warnRatio):
		if prev != marginLevelCritical {
			next = marginLevelWarning
		}
	default:
		next = marginLevelNormal
	}
	if next == prev {
		return
	}
	ins.marginLevels[acct.Currency] = next

	var t broker.EventType
	switch next {
	case marginLevelCritical:
		t = broker.MarginCriticalEvent
	case marginLevelWarning:
		t = broker.MarginWarningEvent
	default:
		t = broker.MarginRecoveredEvent
	}
	s.opts.logger.Warnf("instance %s margin level %s, currency: %s, ratio: %s", ins.id, next, acct.Currency, ratio)
	s.publishMargin(ctx, ins.id, acct.Currency, ratio, next, t)
}

func (s *Syncer) publishOrder(ctx context.Context, t broker.EventType, instanceID string, o exchange.Order, prev *exchange.Order, latest decimal.Decimal) {
	if s.opts.bus == nil {
		return
	}
	evt := broker.NewEvent(t, instanceID)
	evt.Order = &broker.OrderMeta{
		Order:        o,
		Previous:     prev,
		LatestVolume: latest,
	}
	s.opts.bus.Publish(ctx, evt)
}

func (s *Syncer) publishPosition(ctx context.Context, t broker.EventType, instanceID string, p exchange.Position, prev *exchange.Position) {
	if s.opts.bus == nil {
		return
	}
	evt := broker.NewEvent(t, instanceID)
	evt.Position = &broker.PositionMeta{
		Position: p,
		Previous: prev,
	}
	s.opts.bus.Publish(ctx, evt)
}

func (s *Syncer) publishAccount(ctx context.Context, instanceID string, a exchange.AccountSummary, prev *exchange.AccountSummary) {
	if s.opts.bus == nil {
		return
	}
	evt := broker.NewEvent(broker.AccountUpdatedEvent, instanceID)
	evt.Account = &broker.AccountMeta{
		Account:  a,
		Previous: prev,
	}
	s.opts.bus.Publish(ctx, evt)
}

func (s *Syncer) publishMargin(ctx context.Context, instanceID, currency string, ratio decimal.Decimal, level string, t broker.EventType) {
	if s.opts.bus == nil {
		return
	}
	evt := broker.NewEvent(t, instanceID)
	evt.Margin = &broker.MarginMeta{
		Currency: currency,
		Ratio:    ratio,
		Level:    level,
	}
	s.opts.bus.Publish(ctx, evt)
}
