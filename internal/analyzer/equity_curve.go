// Package analyzer computes performance statistics over a finished
// simulation.
package analyzer

import (
	"sort"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/brandonschabell/alphaflow/internal/engine"
	"github.com/brandonschabell/alphaflow/internal/event"
)

// Metrics summarizes an equity curve.
type Metrics struct {
	MaxDrawdown      float64
	SharpeRatio      float64
	SortinoRatio     float64
	AnnualizedReturn float64
	TotalReturn      float64
}

// EquityCurve records the portfolio value at every observed event
// timestamp and derives performance metrics once the replay finishes.
type EquityCurve struct {
	ctx    engine.Context
	times  []time.Time
	values []float64
	index  map[time.Time]int
	fills  []event.Fill

	metrics          Metrics
	benchmarkMetrics *Metrics
	finalized        bool
}

// NewEquityCurve creates an empty analyzer.
func NewEquityCurve() *EquityCurve {
	return &EquityCurve{index: make(map[time.Time]int)}
}

// SetEngine attaches the engine context at registration.
func (a *EquityCurve) SetEngine(ctx engine.Context) {
	a.ctx = ctx
}

// TopicSubscriptions declares the analyzer's bus subscriptions.
func (a *EquityCurve) TopicSubscriptions() []event.Topic {
	return []event.Topic{event.TopicFill, event.TopicMarketData}
}

// ReadEvent samples the portfolio value at the event's timestamp. A
// later event at the same timestamp overwrites the earlier sample, so
// each timestamp keeps its final intra-timestamp value.
func (a *EquityCurve) ReadEvent(e event.Event) error {
	value, err := a.ctx.Portfolio().Value(e.Timestamp())
	if err != nil {
		return errors.Wrap(err, "sample portfolio value")
	}
	if i, ok := a.index[e.Timestamp()]; ok {
		a.values[i] = value
	} else {
		a.index[e.Timestamp()] = len(a.values)
		a.times = append(a.times, e.Timestamp())
		a.values = append(a.values, value)
	}
	if fill, ok := e.(event.Fill); ok {
		a.fills = append(a.fills, fill)
	}
	return nil
}

// Run computes the metrics for the recorded curve and, when a benchmark
// is configured, for the benchmark's price series.
func (a *EquityCurve) Run() error {
	if len(a.values) == 0 {
		return errors.New("no portfolio values recorded")
	}

	a.metrics = Metrics{
		MaxDrawdown:      MaxDrawdown(a.values),
		SharpeRatio:      SharpeRatio(a.times, a.values),
		SortinoRatio:     SortinoRatio(a.times, a.values),
		AnnualizedReturn: AnnualizedReturn(a.times, a.values),
		TotalReturn:      TotalReturn(a.values),
	}
	a.finalized = true

	logs.Infof("max drawdown: %.2f%%", 100*a.metrics.MaxDrawdown)
	logs.Infof("sharpe ratio: %.4f", a.metrics.SharpeRatio)
	logs.Infof("sortino ratio: %.4f", a.metrics.SortinoRatio)
	logs.Infof("annualized return: %.2f%%", 100*a.metrics.AnnualizedReturn)
	logs.Infof("total return: %.2f%%", 100*a.metrics.TotalReturn)

	benchmarkValues, err := a.ctx.Portfolio().BenchmarkValues()
	if err != nil {
		return errors.Wrap(err, "load benchmark values")
	}
	if len(benchmarkValues) == 0 {
		return nil
	}

	times := make([]time.Time, 0, len(benchmarkValues))
	for ts := range benchmarkValues {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	values := make([]float64, len(times))
	for i, ts := range times {
		values[i] = benchmarkValues[ts]
	}
	a.benchmarkMetrics = &Metrics{
		MaxDrawdown:      MaxDrawdown(values),
		SharpeRatio:      SharpeRatio(times, values),
		SortinoRatio:     SortinoRatio(times, values),
		AnnualizedReturn: AnnualizedReturn(times, values),
		TotalReturn:      TotalReturn(values),
	}
	logs.Infof("benchmark total return: %.2f%%", 100*a.benchmarkMetrics.TotalReturn)
	return nil
}

// Results returns the computed metrics. The second return is false
// until Run has completed.
func (a *EquityCurve) Results() (Metrics, bool) {
	return a.metrics, a.finalized
}

// BenchmarkResults returns the benchmark metrics, when a benchmark was
// configured.
func (a *EquityCurve) BenchmarkResults() (Metrics, bool) {
	if a.benchmarkMetrics == nil {
		return Metrics{}, false
	}
	return *a.benchmarkMetrics, true
}

// Fills returns the fills observed during replay.
func (a *EquityCurve) Fills() []event.Fill {
	out := make([]event.Fill, len(a.fills))
	copy(out, a.fills)
	return out
}

// Values returns the recorded curve in observation order.
func (a *EquityCurve) Values() ([]time.Time, []float64) {
	times := make([]time.Time, len(a.times))
	copy(times, a.times)
	values := make([]float64, len(a.values))
	copy(values, a.values)
	return times, values
}
