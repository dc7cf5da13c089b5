package store

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/brandonschabell/alphaflow/internal/analyzer"
	"github.com/brandonschabell/alphaflow/internal/engine"
	"github.com/brandonschabell/alphaflow/internal/event"
)

// Recorder is an analyzer that persists the run: one strategy_runs row
// plus a trades row per fill. When a curve analyzer is attached, its
// finalized metrics land on the run row, so the recorder must be
// registered after the curve analyzer.
type Recorder struct {
	ctx   engine.Context
	store *Store
	name  string
	curve *analyzer.EquityCurve
	fills []event.Fill
}

// NewRecorder creates a recorder for the named strategy. curve may be
// nil.
func NewRecorder(s *Store, strategyName string, curve *analyzer.EquityCurve) *Recorder {
	return &Recorder{store: s, name: strategyName, curve: curve}
}

// SetEngine attaches the engine context at registration.
func (r *Recorder) SetEngine(ctx engine.Context) {
	r.ctx = ctx
}

// TopicSubscriptions declares the recorder's bus subscriptions.
func (r *Recorder) TopicSubscriptions() []event.Topic {
	return []event.Topic{event.TopicFill}
}

// ReadEvent buffers fills until the run is finalized.
func (r *Recorder) ReadEvent(e event.Event) error {
	if fill, ok := e.(event.Fill); ok {
		r.fills = append(r.fills, fill)
	}
	return nil
}

// Run persists the finished backtest.
func (r *Recorder) Run() error {
	timestamps := r.ctx.Timestamps()
	if len(timestamps) == 0 {
		return errors.New("no market data recorded, nothing to persist")
	}
	first, last := timestamps[0], timestamps[len(timestamps)-1]
	if start, ok := r.ctx.BacktestStart(); ok {
		first = start
	}
	if end, ok := r.ctx.BacktestEnd(); ok {
		last = end
	}

	finalValue, err := r.ctx.Portfolio().Value(timestamps[len(timestamps)-1])
	if err != nil {
		return errors.Wrap(err, "value portfolio at end of run")
	}

	initialCash := finalValue
	var sharpe, maxDrawdown *float64
	if r.curve != nil {
		if _, values := r.curve.Values(); len(values) > 0 {
			initialCash = values[0]
		}
		if metrics, ok := r.curve.Results(); ok {
			sharpe = &metrics.SharpeRatio
			maxDrawdown = &metrics.MaxDrawdown
		}
	}

	run := &StrategyRun{
		StrategyName:   r.name,
		StartTimestamp: first,
		EndTimestamp:   last,
		InitialCash:    decimal.NewFromFloat(initialCash),
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.store.CreateRun(run); err != nil {
		return err
	}
	if err := r.store.FinishRun(run, finalValue, sharpe, maxDrawdown); err != nil {
		return err
	}
	if err := r.store.SaveTrades(&run.ID, r.fills); err != nil {
		return err
	}
	logs.Infof("persisted run %d with %d trades", run.ID, len(r.fills))
	return nil
}
