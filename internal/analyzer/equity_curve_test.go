package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonschabell/alphaflow/internal/broker"
	"github.com/brandonschabell/alphaflow/internal/engine"
	"github.com/brandonschabell/alphaflow/internal/event"
	"github.com/brandonschabell/alphaflow/internal/strategy"
)

type fixedFeed struct {
	bars map[string][]event.MarketData
}

func (f *fixedFeed) Run(_ context.Context, symbol string, start, end time.Time) ([]event.MarketData, error) {
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

func TestEquityCurveRunFailsWithoutSamples(t *testing.T) {
	curve := NewEquityCurve()
	require.Error(t, curve.Run())
	_, ok := curve.Results()
	assert.False(t, ok)
}

func TestEquityCurveTracksBacktest(t *testing.T) {
	e := engine.New()
	e.AddEquity("AAPL")
	e.SetCash(1000)
	e.SetDataFeed(&fixedFeed{bars: map[string][]event.MarketData{
		"AAPL": {bar("AAPL", 1, 100), bar("AAPL", 2, 110), bar("AAPL", 3, 120)},
	}})
	e.AddStrategy(strategy.NewBuyAndHold("AAPL", 1.0))
	e.SetBroker(broker.NewSimple(1.0))
	curve := NewEquityCurve()
	e.AddAnalyzer(curve)

	require.NoError(t, e.Run(context.Background(), engine.ModeBacktest))

	times, values := curve.Values()
	require.Equal(t, []time.Time{day(1), day(2), day(3)}, times)
	// Fully invested from day 1: the curve follows the close.
	assert.InDelta(t, 1000.0, values[0], 1e-9)
	assert.InDelta(t, 1100.0, values[1], 1e-9)
	assert.InDelta(t, 1200.0, values[2], 1e-9)

	metrics, ok := curve.Results()
	require.True(t, ok)
	assert.InDelta(t, 0.2, metrics.TotalReturn, 1e-9)
	assert.Zero(t, metrics.MaxDrawdown)
	assert.Positive(t, metrics.SharpeRatio)

	fills := curve.Fills()
	require.Len(t, fills, 1)
	assert.InDelta(t, 10.0, fills[0].Qty, 1e-9)

	_, ok = curve.BenchmarkResults()
	assert.False(t, ok)
}

// The fill and the market data event share a timestamp; the curve keeps
// one sample per timestamp, holding the final value seen there.
func TestEquityCurveOverwritesSameTimestampSamples(t *testing.T) {
	e := engine.New()
	e.AddEquity("AAPL")
	e.SetCash(1000)
	e.SetDataFeed(&fixedFeed{bars: map[string][]event.MarketData{
		"AAPL": {bar("AAPL", 1, 100)},
	}})
	e.AddStrategy(strategy.NewBuyAndHold("AAPL", 1.0))
	e.SetBroker(broker.NewSimple(1.0))
	curve := NewEquityCurve()
	e.AddAnalyzer(curve)

	require.NoError(t, e.Run(context.Background(), engine.ModeBacktest))

	times, values := curve.Values()
	require.Len(t, times, 1)
	require.Len(t, values, 1)
	assert.InDelta(t, 1000.0, values[0], 1e-9)
}

func TestEquityCurveBenchmarkMetrics(t *testing.T) {
	e := engine.New()
	e.AddEquity("AAPL")
	e.SetBenchmark("SPY")
	e.SetCash(1000)
	e.SetDataFeed(&fixedFeed{bars: map[string][]event.MarketData{
		"AAPL": {bar("AAPL", 1, 100), bar("AAPL", 2, 100)},
		"SPY":  {bar("SPY", 1, 400), bar("SPY", 2, 440)},
	}})
	e.AddStrategy(strategy.NewBuyAndHold("AAPL", 1.0))
	e.SetBroker(broker.NewSimple(1.0))
	curve := NewEquityCurve()
	e.AddAnalyzer(curve)

	require.NoError(t, e.Run(context.Background(), engine.ModeBacktest))

	benchmark, ok := curve.BenchmarkResults()
	require.True(t, ok)
	assert.InDelta(t, 0.1, benchmark.TotalReturn, 1e-9)
}
