package mockexc

import (
	"errors"
	"fmt"
	"time"

	"github.com/bitly/go-simplejson"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/go-gotop/statesync/exchange"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 帧类型标识, 信封 e 字段
const (
	orderFrameEvent    = "ORDER_TRADE_UPDATE"
	positionFrameEvent = "POSITION_UPDATE"
	accountFrameEvent  = "ACCOUNT_UPDATE"
)

// Update 归一化后的推送, 恰有一个指针非空
type Update struct {
	Order    *exchange.OrderUpdate
	Position *exchange.PositionUpdate
	Account  *exchange.AccountUpdate
}

// OrderFrame 由订单增量生成一条交易所风格的推送帧
func OrderFrame(upd *exchange.OrderUpdate) ([]byte, error) {
	if upd == nil {
		return nil, errors.New("mock venue: nil order update")
	}
	frame := &wsFrame{
		Event:           orderFrameEvent,
		EventTime:       time.Now().UnixMilli(),
		TransactionTime: upd.TransactionTime,
		Order: &wsOrderUpdate{
			ID:            upd.OrderID,
			ClientOrderID: upd.ClientOrderID,
			Symbol:        upd.Symbol,
			Instrument:    string(upd.Instrument),
			Side:          string(upd.Side),
			PositionSide:  string(upd.PositionSide),
			Type:          string(upd.Type),
			TimeInForce:   string(upd.TimeInForce),
			Status:        string(upd.State),
			Volume:        upd.Volume.String(),
			FilledVolume:  upd.FilledVolume.String(),
			LatestVolume:  upd.LatestVolume.String(),
			Price:         upd.Price.String(),
			TriggerPrice:  upd.TriggerPrice.String(),
			AvgPrice:      upd.AvgPrice.String(),
			FeeAsset:      upd.FeeAsset,
			FeeCost:       upd.FeeCost.String(),
		},
	}
	return json.Marshal(frame)
}

// PositionFrame 由仓位增量生成一条推送帧
func PositionFrame(upd *exchange.PositionUpdate) ([]byte, error) {
	if upd == nil {
		return nil, errors.New("mock venue: nil position update")
	}
	frame := &wsFrame{
		Event:           positionFrameEvent,
		EventTime:       time.Now().UnixMilli(),
		TransactionTime: upd.TransactionTime,
		Position: &wsPositionUpdate{
			Symbol:           upd.Symbol,
			Instrument:       string(upd.Instrument),
			Side:             string(upd.Side),
			Size:             upd.Size.String(),
			EntryPrice:       upd.EntryPrice.String(),
			MarkPrice:        upd.MarkPrice.String(),
			Leverage:         upd.Leverage.String(),
			UnrealizedPnL:    upd.UnrealizedPnL.String(),
			RealizedPnL:      upd.RealizedPnL.String(),
			InitialMargin:    upd.InitialMargin.String(),
			MaintMargin:      upd.MaintMargin.String(),
			LiquidationPrice: upd.LiquidationPrice.String(),
		},
	}
	return json.Marshal(frame)
}

// AccountFrame 由账户摘要增量生成一条推送帧, 一币种一帧
func AccountFrame(upd *exchange.AccountUpdate) ([]byte, error) {
	if upd == nil {
		return nil, errors.New("mock venue: nil account update")
	}
	frame := &wsFrame{
		Event:           accountFrameEvent,
		EventTime:       time.Now().UnixMilli(),
		TransactionTime: upd.TransactionTime,
		Account: &wsAccountUpdate{
			Currency:      upd.Currency,
			Equity:        upd.Equity.String(),
			Balance:       upd.Balance.String(),
			Available:     upd.Available.String(),
			InitialMargin: upd.InitialMargin.String(),
			MaintMargin:   upd.MaintMargin.String(),
			UnrealizedPnL: upd.UnrealizedPnL.String(),
			SessionPnL:    upd.SessionPnL.String(),
		},
	}
	return json.Marshal(frame)
}

// ParseFrame 解析并归一化一条推送帧。
// 先用 simplejson 窥探 e 再整体反序列化, instanceID 由承载连接决定。
func ParseFrame(instanceID string, raw []byte) (*Update, error) {
	j, err := simplejson.NewJson(raw)
	if err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	event := j.Get("e").MustString()

	frame := &wsFrame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, fmt.Errorf("decode %s frame: %w", event, err)
	}
	if frame.TransactionTime == 0 {
		frame.TransactionTime = frame.EventTime
	}

	switch event {
	case orderFrameEvent:
		upd, err := toOrderUpdate(instanceID, frame, raw)
		if err != nil {
			return nil, err
		}
		return &Update{Order: upd}, nil
	case positionFrameEvent:
		upd, err := toPositionUpdate(instanceID, frame, raw)
		if err != nil {
			return nil, err
		}
		return &Update{Position: upd}, nil
	case accountFrameEvent:
		upd, err := toAccountUpdate(instanceID, frame, raw)
		if err != nil {
			return nil, err
		}
		return &Update{Account: upd}, nil
	}
	return nil, fmt.Errorf("unrecognized frame type %q", event)
}

func toOrderUpdate(instanceID string, f *wsFrame, raw []byte) (*exchange.OrderUpdate, error) {
	o := f.Order
	if o == nil {
		return nil, errors.New("order frame missing payload")
	}
	volume, err := dec(o.Volume)
	if err != nil {
		return nil, fmt.Errorf("order frame volume: %w", err)
	}
	filledVolume, err := dec(o.FilledVolume)
	if err != nil {
		return nil, fmt.Errorf("order frame filled volume: %w", err)
	}
	latestVolume, err := dec(o.LatestVolume)
	if err != nil {
		return nil, fmt.Errorf("order frame latest volume: %w", err)
	}
	price, err := dec(o.Price)
	if err != nil {
		return nil, fmt.Errorf("order frame price: %w", err)
	}
	triggerPrice, err := dec(o.TriggerPrice)
	if err != nil {
		return nil, fmt.Errorf("order frame trigger price: %w", err)
	}
	avgPrice, err := dec(o.AvgPrice)
	if err != nil {
		return nil, fmt.Errorf("order frame avg price: %w", err)
	}
	feeCost, err := dec(o.FeeCost)
	if err != nil {
		return nil, fmt.Errorf("order frame fee cost: %w", err)
	}
	return &exchange.OrderUpdate{
		InstanceID:      instanceID,
		Exchange:        exchange.MockExchange,
		OrderID:         o.ID,
		ClientOrderID:   o.ClientOrderID,
		Symbol:          o.Symbol,
		Instrument:      exchange.InstrumentType(o.Instrument),
		Side:            exchange.SideType(o.Side),
		PositionSide:    exchange.PositionSide(o.PositionSide),
		Type:            exchange.OrderType(o.Type),
		TimeInForce:     exchange.TimeInForce(o.TimeInForce),
		State:           exchange.OrderState(o.Status),
		Volume:          volume,
		FilledVolume:    filledVolume,
		LatestVolume:    latestVolume,
		Price:           price,
		TriggerPrice:    triggerPrice,
		AvgPrice:        avgPrice,
		FeeAsset:        o.FeeAsset,
		FeeCost:         feeCost,
		TransactionTime: f.TransactionTime,
		RawPayload:      raw,
	}, nil
}

func toPositionUpdate(instanceID string, f *wsFrame, raw []byte) (*exchange.PositionUpdate, error) {
	p := f.Position
	if p == nil {
		return nil, errors.New("position frame missing payload")
	}
	size, err := dec(p.Size)
	if err != nil {
		return nil, fmt.Errorf("position frame size: %w", err)
	}
	entryPrice, err := dec(p.EntryPrice)
	if err != nil {
		return nil, fmt.Errorf("position frame entry price: %w", err)
	}
	markPrice, err := dec(p.MarkPrice)
	if err != nil {
		return nil, fmt.Errorf("position frame mark price: %w", err)
	}
	leverage, err := dec(p.Leverage)
	if err != nil {
		return nil, fmt.Errorf("position frame leverage: %w", err)
	}
	unrealized, err := dec(p.UnrealizedPnL)
	if err != nil {
		return nil, fmt.Errorf("position frame unrealized pnl: %w", err)
	}
	realized, err := dec(p.RealizedPnL)
	if err != nil {
		return nil, fmt.Errorf("position frame realized pnl: %w", err)
	}
	initialMargin, err := dec(p.InitialMargin)
	if err != nil {
		return nil, fmt.Errorf("position frame initial margin: %w", err)
	}
	maintMargin, err := dec(p.MaintMargin)
	if err != nil {
		return nil, fmt.Errorf("position frame maint margin: %w", err)
	}
	liquidation, err := dec(p.LiquidationPrice)
	if err != nil {
		return nil, fmt.Errorf("position frame liquidation price: %w", err)
	}
	return &exchange.PositionUpdate{
		InstanceID:       instanceID,
		Exchange:         exchange.MockExchange,
		Symbol:           p.Symbol,
		Instrument:       exchange.InstrumentType(p.Instrument),
		Side:             exchange.PositionSide(p.Side),
		Size:             size,
		EntryPrice:       entryPrice,
		MarkPrice:        markPrice,
		Leverage:         leverage,
		UnrealizedPnL:    unrealized,
		RealizedPnL:      realized,
		InitialMargin:    initialMargin,
		MaintMargin:      maintMargin,
		LiquidationPrice: liquidation,
		TransactionTime:  f.TransactionTime,
		RawPayload:       raw,
	}, nil
}

func toAccountUpdate(instanceID string, f *wsFrame, raw []byte) (*exchange.AccountUpdate, error) {
	a := f.Account
	if a == nil {
		return nil, errors.New("account frame missing payload")
	}
	equity, err := dec(a.Equity)
	if err != nil {
		return nil, fmt.Errorf("account frame equity: %w", err)
	}
	balance, err := dec(a.Balance)
	if err != nil {
		return nil, fmt.Errorf("account frame balance: %w", err)
	}
	available, err := dec(a.Available)
	if err != nil {
		return nil, fmt.Errorf("account frame available: %w", err)
	}
	initialMargin, err := dec(a.InitialMargin)
	if err != nil {
		return nil, fmt.Errorf("account frame initial margin: %w", err)
	}
	maintMargin, err := dec(a.MaintMargin)
	if err != nil {
		return nil, fmt.Errorf("account frame maint margin: %w", err)
	}
	unrealized, err := dec(a.UnrealizedPnL)
	if err != nil {
		return nil, fmt.Errorf("account frame unrealized pnl: %w", err)
	}
	sessionPnL, err := dec(a.SessionPnL)
	if err != nil {
		return nil, fmt.Errorf("account frame session pnl: %w", err)
	}
	return &exchange.AccountUpdate{
		InstanceID:      instanceID,
		Exchange:        exchange.MockExchange,
		Currency:        a.Currency,
		Equity:          equity,
		Balance:         balance,
		Available:       available,
		InitialMargin:   initialMargin,
		MaintMargin:     maintMargin,
		UnrealizedPnL:   unrealized,
		SessionPnL:      sessionPnL,
		TransactionTime: f.TransactionTime,
		RawPayload:      raw,
	}, nil
}

// dec 空串视为零值, 交易所对缺省字段常发空串
func dec(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
