// Package broker simulates order execution against the current
// portfolio and loaded prices.
package broker

import (
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/brandonschabell/alphaflow/internal/engine"
	"github.com/brandonschabell/alphaflow/internal/event"
)

// Simple is a stateless validate-then-execute broker. Every order ends
// in exactly one of two outcomes: a fill published on the FILL topic,
// or a silent rejection. There are no partial fills, no pending state
// and no retries; strategies must expect rejected orders to vanish
// with nothing but a diagnostic log.
//
// BUY orders are validated against buying power under the configured
// margin; a margin of 1.0 reproduces a cash-only account. SELL orders
// are validated against the existing position only and never consult
// margin, so shorting is impossible at this layer.
type Simple struct {
	ctx    engine.Context
	margin float64
}

// NewSimple creates a broker with the given margin multiplier. Values
// below 1.0 are treated as 1.0.
func NewSimple(margin float64) *Simple {
	if margin < 1.0 {
		margin = 1.0
	}
	return &Simple{margin: margin}
}

// SetEngine attaches the engine context at registration.
func (b *Simple) SetEngine(ctx engine.Context) {
	b.ctx = ctx
}

// TopicSubscriptions declares the broker's bus subscriptions.
func (b *Simple) TopicSubscriptions() []event.Topic {
	return []event.Topic{event.TopicOrder}
}

// ReadEvent validates an order and either publishes the resulting fill
// or drops the order. Missing price data is fatal and aborts the run;
// a failed validation is not.
func (b *Simple) ReadEvent(e event.Event) error {
	order, ok := e.(event.Order)
	if !ok {
		return nil
	}

	price, err := b.ctx.Price(order.Symbol, order.Time)
	if err != nil {
		return errors.Wrap(err, "price order "+order.Symbol)
	}

	ok, reason, err := b.validate(order, price)
	if err != nil {
		return err
	}
	if !ok {
		logs.Warnf("order rejected: %s %s qty=%f at %s: %s",
			order.Side, order.Symbol, order.Qty, order.Time.Format("2006-01-02 15:04:05"), reason)
		return nil
	}

	qty := order.Qty
	if order.Side == event.SideSell {
		qty = -qty
	}
	fill := event.Fill{
		Time:       order.Time,
		Symbol:     order.Symbol,
		Price:      price,
		Qty:        qty,
		Commission: 0,
	}
	logs.Debugf("order filled: %s %s qty=%f price=%f", order.Side, order.Symbol, order.Qty, price)
	return b.ctx.Publish(event.TopicFill, fill)
}

func (b *Simple) validate(order event.Order, price float64) (bool, string, error) {
	switch order.Side {
	case event.SideBuy:
		buyingPower, err := b.ctx.Portfolio().BuyingPower(b.margin, order.Time)
		if err != nil {
			return false, "", err
		}
		if order.Qty*price > buyingPower {
			return false, "insufficient buying power", nil
		}
		return true, "", nil
	case event.SideSell:
		if b.ctx.Portfolio().Position(order.Symbol) < order.Qty {
			return false, "insufficient position", nil
		}
		return true, "", nil
	default:
		return false, "unknown order side", nil
	}
}
