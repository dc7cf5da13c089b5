package event

// Topic names a channel on the event bus.
type Topic uint8

const (
	_topic_beg Topic = iota
	TopicMarketData
	TopicOrder
	TopicFill
	TopicEarnings
	TopicNews
	TopicPortfolioUpdate
	_topic_end
)

func (t Topic) IsAvailable() bool {
	return t > _topic_beg && t < _topic_end
}

func (t Topic) String() string {
	switch t {
	case TopicMarketData:
		return "MARKET_DATA"
	case TopicOrder:
		return "ORDER"
	case TopicFill:
		return "FILL"
	case TopicEarnings:
		return "EARNINGS"
	case TopicNews:
		return "NEWS"
	case TopicPortfolioUpdate:
		return "PORTFOLIO_UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Side is the direction of an order.
type Side uint8

const (
	_side_beg Side = iota
	SideBuy
	SideSell
	_side_end
)

func (s Side) IsAvailable() bool {
	return s > _side_beg && s < _side_end
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// OrderType is the execution style of an order. Only market orders
// are supported.
type OrderType uint8

const (
	_order_type_beg OrderType = iota
	OrderTypeMarket
	_order_type_end
)

func (o OrderType) IsAvailable() bool {
	return o > _order_type_beg && o < _order_type_end
}

func (o OrderType) String() string {
	switch o {
	case OrderTypeMarket:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}
