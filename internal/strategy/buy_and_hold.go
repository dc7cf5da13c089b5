// Package strategy holds reference trading strategies.
package strategy

import (
	"math"

	"github.com/yanun0323/errors"

	"github.com/brandonschabell/alphaflow/internal/engine"
	"github.com/brandonschabell/alphaflow/internal/event"
)

// minAdjustment is the smallest position adjustment worth trading.
const minAdjustment = 0.01

// BuyAndHold rebalances a single symbol toward a target weight of the
// portfolio value and otherwise holds. With a target weight of 1.0 it
// invests everything on the first bar inside the trading window.
type BuyAndHold struct {
	ctx          engine.Context
	symbol       string
	targetWeight float64
}

// NewBuyAndHold creates the strategy for one symbol.
func NewBuyAndHold(symbol string, targetWeight float64) *BuyAndHold {
	return &BuyAndHold{symbol: symbol, targetWeight: targetWeight}
}

// SetEngine attaches the engine context at registration.
func (s *BuyAndHold) SetEngine(ctx engine.Context) {
	s.ctx = ctx
}

// TopicSubscriptions declares the strategy's bus subscriptions.
func (s *BuyAndHold) TopicSubscriptions() []event.Topic {
	return []event.Topic{event.TopicMarketData}
}

// ReadEvent publishes a market order whenever the symbol's position
// drifts from the target weight. Bars outside the backtest window are
// ignored; history still loads there so valuations stay possible.
func (s *BuyAndHold) ReadEvent(e event.Event) error {
	bar, ok := e.(event.MarketData)
	if !ok || bar.Symbol != s.symbol {
		return nil
	}
	if start, ok := s.ctx.BacktestStart(); ok && bar.Time.Before(start) {
		return nil
	}
	if end, ok := s.ctx.BacktestEnd(); ok && bar.Time.After(end) {
		return nil
	}

	value, err := s.ctx.Portfolio().Value(bar.Time)
	if err != nil {
		return errors.Wrap(err, "value portfolio")
	}
	held, err := s.ctx.Portfolio().PositionValue(s.symbol, bar.Time)
	if err != nil {
		return errors.Wrap(err, "value position")
	}

	adjustment := value*s.targetWeight - held
	if math.Abs(adjustment) < minAdjustment {
		return nil
	}

	side := event.SideBuy
	if adjustment < 0 {
		side = event.SideSell
	}
	return s.ctx.Publish(event.TopicOrder, event.Order{
		Time:   bar.Time,
		Symbol: s.symbol,
		Side:   side,
		Qty:    math.Abs(adjustment / bar.Close),
		Type:   event.OrderTypeMarket,
	})
}
