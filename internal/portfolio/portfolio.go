package portfolio

import (
	"time"

	"github.com/brandonschabell/alphaflow/internal/event"
)

// MarketView is the slice of the engine the ledger needs: price lookup,
// the set of known timestamps and the optional benchmark symbol.
type MarketView interface {
	Price(symbol string, ts time.Time) (float64, error)
	Timestamps() []time.Time
	Benchmark() (string, bool)
}

// Portfolio tracks cash and signed per-symbol positions. Both change
// only through fill application: every fill moves cash by
// -(price*qty) - commission and the position by qty, so trades are
// value-neutral at execution price and commission is value-destroying.
type Portfolio struct {
	view      MarketView
	cash      float64
	positions map[string]float64
}

// New creates an empty ledger backed by the given market view.
func New(view MarketView) *Portfolio {
	return &Portfolio{
		view:      view,
		positions: make(map[string]float64),
	}
}

// TopicSubscriptions declares the ledger's bus subscriptions.
func (p *Portfolio) TopicSubscriptions() []event.Topic {
	return []event.Topic{event.TopicFill}
}

// ReadEvent applies a fill to cash and positions. Non-fill events are
// ignored.
func (p *Portfolio) ReadEvent(e event.Event) error {
	fill, ok := e.(event.Fill)
	if !ok {
		return nil
	}
	p.UpdateCash(-(fill.Price * fill.Qty) - fill.Commission)
	p.UpdatePosition(fill.Symbol, fill.Qty)
	return nil
}

// SetCash replaces the cash balance.
func (p *Portfolio) SetCash(cash float64) {
	p.cash = cash
}

// Cash returns the current cash balance. It may be negative when margin
// is in use.
func (p *Portfolio) Cash() float64 {
	return p.cash
}

// UpdateCash adds the amount to the cash balance.
func (p *Portfolio) UpdateCash(amount float64) {
	p.cash += amount
}

// Position returns the signed quantity held for a symbol, zero when the
// symbol was never traded.
func (p *Portfolio) Position(symbol string) float64 {
	return p.positions[symbol]
}

// Positions returns a copy of the position map.
func (p *Portfolio) Positions() map[string]float64 {
	out := make(map[string]float64, len(p.positions))
	for symbol, qty := range p.positions {
		out[symbol] = qty
	}
	return out
}

// UpdatePosition adds qty to the position for a symbol. Negative
// quantities reduce the position and may cross zero.
func (p *Portfolio) UpdatePosition(symbol string, qty float64) {
	p.positions[symbol] = p.positions[symbol] + qty
}

// PositionValue returns the market value of a single position at the
// given time.
func (p *Portfolio) PositionValue(symbol string, ts time.Time) (float64, error) {
	qty := p.Position(symbol)
	if qty == 0 {
		return 0, nil
	}
	price, err := p.view.Price(symbol, ts)
	if err != nil {
		return 0, err
	}
	return qty * price, nil
}

// PositionsValue returns the total market value of all positions at the
// given time.
func (p *Portfolio) PositionsValue(ts time.Time) (float64, error) {
	var total float64
	for symbol := range p.positions {
		value, err := p.PositionValue(symbol, ts)
		if err != nil {
			return 0, err
		}
		total += value
	}
	return total, nil
}

// Value returns cash plus the market value of all positions.
func (p *Portfolio) Value(ts time.Time) (float64, error) {
	positions, err := p.PositionsValue(ts)
	if err != nil {
		return 0, err
	}
	return p.cash + positions, nil
}

// BuyingPower returns the capital available for new purchases under the
// given margin multiplier, net of capital already committed to
// positions. A margin of 1.0 reduces this to the cash balance.
func (p *Portfolio) BuyingPower(margin float64, ts time.Time) (float64, error) {
	value, err := p.Value(ts)
	if err != nil {
		return 0, err
	}
	positions, err := p.PositionsValue(ts)
	if err != nil {
		return 0, err
	}
	return value*margin - positions, nil
}

// BenchmarkValues returns the benchmark price at every known timestamp,
// or an empty map when no benchmark is configured.
func (p *Portfolio) BenchmarkValues() (map[time.Time]float64, error) {
	benchmark, ok := p.view.Benchmark()
	if !ok {
		return map[time.Time]float64{}, nil
	}
	values := make(map[time.Time]float64)
	for _, ts := range p.view.Timestamps() {
		price, err := p.view.Price(benchmark, ts)
		if err != nil {
			return nil, err
		}
		values[ts] = price
	}
	return values, nil
}
