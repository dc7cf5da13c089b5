package event

import "time"

// Kind discriminates the closed set of event variants.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindMarketData
	KindOrder
	KindFill
)

// Priority is the category priority used when interleaving events with
// identical timestamps: market data first, then orders, then fills.
func (k Kind) Priority() int {
	switch k {
	case KindMarketData:
		return 0
	case KindOrder:
		return 1
	case KindFill:
		return 2
	default:
		return 3
	}
}

// Event is an immutable, timestamp-bearing record. The concrete variants
// are MarketData, Order and Fill; consumers switch on the value or on
// Kind and must treat the set as closed.
type Event interface {
	Timestamp() time.Time
	Kind() Kind
}

// MarketData is a single OHLCV bar for one symbol. Close is the
// canonical trade and valuation price.
type MarketData struct {
	Time   time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (e MarketData) Timestamp() time.Time { return e.Time }
func (e MarketData) Kind() Kind           { return KindMarketData }

// Order is a request to trade Qty shares of Symbol. Qty is always
// positive; direction is carried by Side.
type Order struct {
	Time   time.Time
	Symbol string
	Side   Side
	Qty    float64
	Type   OrderType
}

func (e Order) Timestamp() time.Time { return e.Time }
func (e Order) Kind() Kind           { return KindOrder }

// Fill records an executed order. Qty is signed: positive means bought,
// negative means sold. Commission is currently always zero but is kept
// as a field so commission models can produce it.
type Fill struct {
	Time       time.Time
	Symbol     string
	Price      float64
	Qty        float64
	Commission float64
}

func (e Fill) Timestamp() time.Time { return e.Time }
func (e Fill) Kind() Kind           { return KindFill }
