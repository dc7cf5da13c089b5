package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonschabell/alphaflow/internal/broker"
	"github.com/brandonschabell/alphaflow/internal/engine"
	"github.com/brandonschabell/alphaflow/internal/event"
)

type feedFromBars struct {
	bars map[string][]event.MarketData
}

func (f *feedFromBars) Run(_ context.Context, symbol string, start, end time.Time) ([]event.MarketData, error) {
	var out []event.MarketData
	for _, bar := range f.bars[symbol] {
		if !start.IsZero() && bar.Time.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Time.After(end) {
			continue
		}
		out = append(out, bar)
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(symbol string, d int, close float64) event.MarketData {
	return event.MarketData{Time: day(d), Symbol: symbol, Close: close}
}

func TestBuyAndHoldInvestsOnFirstBar(t *testing.T) {
	e := engine.New()
	e.AddEquity("AAPL")
	e.SetCash(1000)
	e.SetDataFeed(&feedFromBars{bars: map[string][]event.MarketData{
		"AAPL": {bar("AAPL", 1, 100), bar("AAPL", 2, 110), bar("AAPL", 3, 120)},
	}})
	e.AddStrategy(NewBuyAndHold("AAPL", 1.0))
	e.SetBroker(broker.NewSimple(1.0))

	require.NoError(t, e.Run(context.Background(), engine.ModeBacktest))

	// All-in on day 1: 10 shares at 100. The position never needs a
	// top-up because value and held value scale together at weight 1.0.
	p := e.Portfolio()
	assert.InDelta(t, 10.0, p.Position("AAPL"), 1e-9)
	assert.InDelta(t, 0.0, p.Cash(), 1e-9)

	value, err := p.Value(day(3))
	require.NoError(t, err)
	assert.InDelta(t, 1200.0, value, 1e-9)
}

func TestBuyAndHoldRespectsTargetWeight(t *testing.T) {
	e := engine.New()
	e.AddEquity("AAPL")
	e.SetCash(1000)
	e.SetDataFeed(&feedFromBars{bars: map[string][]event.MarketData{
		"AAPL": {bar("AAPL", 1, 100)},
	}})
	e.AddStrategy(NewBuyAndHold("AAPL", 0.5))
	e.SetBroker(broker.NewSimple(1.0))

	require.NoError(t, e.Run(context.Background(), engine.ModeBacktest))

	p := e.Portfolio()
	assert.InDelta(t, 5.0, p.Position("AAPL"), 1e-9)
	assert.InDelta(t, 500.0, p.Cash(), 1e-9)
}

func TestBuyAndHoldIgnoresBarsOutsideWindow(t *testing.T) {
	e := engine.New()
	e.AddEquity("AAPL")
	e.SetCash(1000)
	e.SetDataStart(day(1))
	e.SetBacktestStart(day(2))
	e.SetBacktestEnd(day(3))
	e.SetDataFeed(&feedFromBars{bars: map[string][]event.MarketData{
		"AAPL": {bar("AAPL", 1, 50), bar("AAPL", 2, 100), bar("AAPL", 3, 110), bar("AAPL", 4, 120)},
	}})
	e.AddStrategy(NewBuyAndHold("AAPL", 1.0))
	e.SetBroker(broker.NewSimple(1.0))

	require.NoError(t, e.Run(context.Background(), engine.ModeBacktest))

	// First trade happens on day 2 at 100, not day 1 at 50.
	assert.InDelta(t, 10.0, e.Portfolio().Position("AAPL"), 1e-9)
}

func TestBuyAndHoldIgnoresOtherSymbols(t *testing.T) {
	e := engine.New()
	e.AddEquity("AAPL")
	e.AddEquity("MSFT")
	e.SetCash(1000)
	e.SetDataFeed(&feedFromBars{bars: map[string][]event.MarketData{
		"AAPL": {bar("AAPL", 1, 100)},
		"MSFT": {bar("MSFT", 1, 50)},
	}})
	e.AddStrategy(NewBuyAndHold("MSFT", 1.0))
	e.SetBroker(broker.NewSimple(1.0))

	require.NoError(t, e.Run(context.Background(), engine.ModeBacktest))

	p := e.Portfolio()
	assert.Zero(t, p.Position("AAPL"))
	assert.InDelta(t, 20.0, p.Position("MSFT"), 1e-9)
}

func TestBuyAndHoldSkipsSubCentAdjustments(t *testing.T) {
	e := engine.New()
	e.AddEquity("AAPL")
	e.SetCash(0.005)
	e.SetDataFeed(&feedFromBars{bars: map[string][]event.MarketData{
		"AAPL": {bar("AAPL", 1, 100)},
	}})
	e.AddStrategy(NewBuyAndHold("AAPL", 1.0))
	e.SetBroker(broker.NewSimple(1.0))

	require.NoError(t, e.Run(context.Background(), engine.ModeBacktest))
	assert.Zero(t, e.Portfolio().Position("AAPL"))
}
