/*
Engine drives the whole simulation.

# Module
  - event bus: synchronous topic dispatch to portfolio, strategies, broker and analyzers
  - universe: ordered set of symbols, with an optional non-traded benchmark
  - history: per-symbol append-only buffers of market data, backing price lookups
  - run loop: gather per-symbol feeds, stable-sort by timestamp, replay, finalize analyzers

# Source
 1. market data from the configured data feed, bounded by the data/backtest window

# Produce
  - market data events on the bus; everything downstream (orders, fills) cascades from them
*/
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/brandonschabell/alphaflow/internal/bus"
	"github.com/brandonschabell/alphaflow/internal/event"
	"github.com/brandonschabell/alphaflow/internal/portfolio"
)

var (
	ErrLiveTradingUnsupported = errors.New("live trading is not supported")
	ErrMissingPriceData       = errors.New("missing price data")
	ErrNoDataFeed             = errors.New("no data feed configured")
)

// Mode selects how Run executes.
type Mode uint8

const (
	ModeBacktest Mode = iota
	ModeLive
)

// Context is the engine surface handed to strategies, brokers and
// analyzers at registration. It is a non-owning view; the engine owns
// the simulation lifetime.
type Context interface {
	Price(symbol string, ts time.Time) (float64, error)
	Portfolio() *portfolio.Portfolio
	Publish(topic event.Topic, e event.Event) error
	Timestamps() []time.Time
	Benchmark() (string, bool)
	BacktestStart() (time.Time, bool)
	BacktestEnd() (time.Time, bool)
}

// Strategy reacts to events, typically publishing orders.
type Strategy interface {
	bus.Subscriber
	SetEngine(ctx Context)
}

// Broker validates and executes orders.
type Broker interface {
	bus.Subscriber
	SetEngine(ctx Context)
}

// Analyzer observes events during replay and finalizes once the full
// stream has been replayed.
type Analyzer interface {
	bus.Subscriber
	SetEngine(ctx Context)
	Run() error
}

// DataFeed produces a finite, chronologically ordered sequence of bars
// for one symbol. Zero start/end times mean unbounded; the feed is
// responsible for filtering to the given window.
type DataFeed interface {
	Run(ctx context.Context, symbol string, start, end time.Time) ([]event.MarketData, error)
}

// Engine owns the bus, the ledger and the simulation state.
type Engine struct {
	bus        *bus.Bus
	portfolio  *portfolio.Portfolio
	strategies []Strategy
	analyzers  []Analyzer
	broker     Broker
	feed       DataFeed

	universe    []string
	universeSet map[string]struct{}
	benchmark   string

	// history accumulates across runs; a second Run appends to these
	// buffers rather than resetting them.
	history map[string][]event.MarketData

	dataStart     time.Time
	backtestStart time.Time
	backtestEnd   time.Time
}

// New creates an engine with an empty universe and a zero-cash ledger.
func New() *Engine {
	e := &Engine{
		bus:         bus.New(),
		universeSet: make(map[string]struct{}),
		history:     make(map[string][]event.MarketData),
	}
	e.portfolio = portfolio.New(e)
	for _, topic := range e.portfolio.TopicSubscriptions() {
		e.bus.Subscribe(topic, e.portfolio)
	}
	return e
}

// AddEquity adds a symbol to the trading universe. Adding a symbol
// twice is a no-op; first insertion order is preserved.
func (e *Engine) AddEquity(symbol string) {
	if _, ok := e.universeSet[symbol]; ok {
		return
	}
	e.universeSet[symbol] = struct{}{}
	e.universe = append(e.universe, symbol)
}

// SetBenchmark marks a symbol as the benchmark for performance
// comparison and adds it to the universe. The benchmark is never
// traded.
func (e *Engine) SetBenchmark(symbol string) {
	e.AddEquity(symbol)
	e.benchmark = symbol
}

// SetDataFeed sets the feed used to load market data.
func (e *Engine) SetDataFeed(feed DataFeed) {
	e.feed = feed
}

// AddStrategy registers a strategy and subscribes it to its topics.
func (e *Engine) AddStrategy(s Strategy) {
	s.SetEngine(e)
	for _, topic := range s.TopicSubscriptions() {
		e.bus.Subscribe(topic, s)
	}
	e.strategies = append(e.strategies, s)
}

// AddAnalyzer registers an analyzer and subscribes it to its topics.
func (e *Engine) AddAnalyzer(a Analyzer) {
	a.SetEngine(e)
	for _, topic := range a.TopicSubscriptions() {
		e.bus.Subscribe(topic, a)
	}
	e.analyzers = append(e.analyzers, a)
}

// SetBroker registers the broker and subscribes it to its topics.
func (e *Engine) SetBroker(b Broker) {
	b.SetEngine(e)
	for _, topic := range b.TopicSubscriptions() {
		e.bus.Subscribe(topic, b)
	}
	e.broker = b
}

// SetCash sets the initial cash balance of the ledger.
func (e *Engine) SetCash(cash float64) {
	e.portfolio.SetCash(cash)
}

// SetDataStart sets the earliest timestamp to load data from. Data
// before it is never fetched.
func (e *Engine) SetDataStart(ts time.Time) {
	e.dataStart = ts
}

// SetBacktestStart sets the timestamp strategies begin trading from.
func (e *Engine) SetBacktestStart(ts time.Time) {
	e.backtestStart = ts
}

// SetBacktestEnd sets the timestamp the backtest stops at.
func (e *Engine) SetBacktestEnd(ts time.Time) {
	e.backtestEnd = ts
}

// Portfolio returns the engine's ledger.
func (e *Engine) Portfolio() *portfolio.Portfolio {
	return e.portfolio
}

// Benchmark returns the benchmark symbol, if one is configured.
func (e *Engine) Benchmark() (string, bool) {
	return e.benchmark, e.benchmark != ""
}

// BacktestStart returns the trading window start, if set.
func (e *Engine) BacktestStart() (time.Time, bool) {
	return e.backtestStart, !e.backtestStart.IsZero()
}

// BacktestEnd returns the trading window end, if set.
func (e *Engine) BacktestEnd() (time.Time, bool) {
	return e.backtestEnd, !e.backtestEnd.IsZero()
}

// Publish delivers an event on the bus.
func (e *Engine) Publish(topic event.Topic, evt event.Event) error {
	return e.bus.Publish(topic, evt)
}

// Unsubscribe removes a bus registration, e.g. to detach an analyzer
// between runs.
func (e *Engine) Unsubscribe(topic event.Topic, sub bus.Subscriber) {
	e.bus.Unsubscribe(topic, sub)
}

// Run executes the simulation. Only ModeBacktest is supported; ModeLive
// fails fast with ErrLiveTradingUnsupported.
//
// The loaded history is kept regardless of the backtest window, so
// price lookups stay valid outside the trading window; filtering to the
// window happens in the consuming strategies.
func (e *Engine) Run(ctx context.Context, mode Mode) error {
	if mode != ModeBacktest {
		return ErrLiveTradingUnsupported
	}
	if e.feed == nil {
		return ErrNoDataFeed
	}

	start := e.dataStart
	if start.IsZero() {
		start = e.backtestStart
	}

	var events []event.MarketData
	for _, symbol := range e.universe {
		loaded, err := e.feed.Run(ctx, symbol, start, e.backtestEnd)
		if err != nil {
			return errors.Wrap(err, "load market data for "+symbol)
		}
		events = append(events, loaded...)
	}

	// Stable sort on timestamp only: same-timestamp events keep their
	// concatenation order, i.e. universe insertion order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})

	for _, evt := range events {
		e.history[evt.Symbol] = append(e.history[evt.Symbol], evt)
	}

	logs.Infof("replaying %d market data events across %d symbols", len(events), len(e.universe))
	for _, evt := range events {
		if err := e.bus.Publish(event.TopicMarketData, evt); err != nil {
			return err
		}
	}

	for _, analyzer := range e.analyzers {
		logs.Infof("running analyzer %T", analyzer)
		if err := analyzer.Run(); err != nil {
			return errors.Wrap(err, "run analyzer")
		}
	}
	return nil
}

// Price returns the close of the first stored bar at or after the
// given time. The lookup is forward-looking on purpose: it answers
// "what price could a market order get at this time", not "what was the
// last known price". It returns ErrMissingPriceData when no such bar
// exists, including when the symbol was never loaded.
func (e *Engine) Price(symbol string, ts time.Time) (float64, error) {
	for _, bar := range e.history[symbol] {
		if !bar.Time.Before(ts) {
			return bar.Close, nil
		}
	}
	return 0, errors.Wrap(ErrMissingPriceData, "symbol "+symbol+" at "+ts.Format(time.RFC3339))
}

// Bars returns a copy of the stored history for a symbol, in insertion
// order.
func (e *Engine) Bars(symbol string) []event.MarketData {
	bars := e.history[symbol]
	out := make([]event.MarketData, len(bars))
	copy(out, bars)
	return out
}

// Timestamps returns the sorted, de-duplicated union of timestamps
// across all stored history.
func (e *Engine) Timestamps() []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, bars := range e.history {
		for _, bar := range bars {
			if _, ok := seen[bar.Time]; ok {
				continue
			}
			seen[bar.Time] = struct{}{}
			out = append(out, bar.Time)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
