package orderbook

type EventType int

const (
	EventTrade EventType = iota
	EventRested
	EventCancelled
	EventModified
	EventRejected
	EventMarketUnfilled
)

func (t EventType) String() string {
	switch t {
	case EventTrade:
		return "TRADE"
	case EventRested:
		return "RESTED"
	case EventCancelled:
		return "CANCELLED"
	case EventModified:
		return "MODIFIED"
	case EventRejected:
		return "REJECTED"
	case EventMarketUnfilled:
		return "MARKET_UNFILLED"
	default:
		return "UNKNOWN"
	}
}

// Event is one entry in the report list an engine operation returns. The
// engine never performs output itself; callers decide where events go.
//
// For trades, OrderID is the aggressor, MakerID the resting order, Price
// the resting order's price and Qty the traded quantity. For everything
// else MakerID is zero and Price/Qty describe the affected order.
type Event struct {
	Type    EventType `json:"type"`
	OrderID uint64    `json:"order_id,omitempty"`
	MakerID uint64    `json:"maker_id,omitempty"`
	Side    Side      `json:"side"`
	Price   int64     `json:"price"`
	Qty     int64     `json:"qty"`
	Reason  string    `json:"reason,omitempty"`
}
