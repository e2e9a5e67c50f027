package orderbook

import "github.com/pkg/errors"

type Side int
type OrderType int
type PegType int

const (
	Buy Side = iota
	Sell
)

const (
	Limit OrderType = iota
	Market
)

const (
	PegNone PegType = iota
	PegBid
	PegOffer
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "INVALID"
	}
}

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "LIMIT"
	case Market:
		return "MARKET"
	default:
		return "INVALID"
	}
}

func (p PegType) String() string {
	switch p {
	case PegNone:
		return "NONE"
	case PegBid:
		return "BID"
	case PegOffer:
		return "OFFER"
	default:
		return "INVALID"
	}
}

// ParseSide maps the wire representation to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "BUY", "buy":
		return Buy, nil
	case "SELL", "sell":
		return Sell, nil
	}
	return 0, errors.Errorf("unknown side %q", s)
}

func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case "LIMIT", "limit":
		return Limit, nil
	case "MARKET", "market":
		return Market, nil
	}
	return 0, errors.Errorf("unknown order type %q", s)
}

func ParsePegType(s string) (PegType, error) {
	switch s {
	case "", "NONE", "none":
		return PegNone, nil
	case "BID", "bid":
		return PegBid, nil
	case "OFFER", "offer":
		return PegOffer, nil
	}
	return 0, errors.Errorf("unknown peg type %q", s)
}

// Order is a pure domain entity. ID and Seq are assigned by the engine,
// never by the caller. Seq is the sole tie-breaker within a price level
// and is reassigned on modify.
//
// Price 0 means "not yet meaningful": a pegged order carries it until the
// first repricing finds a valid reference.
type Order struct {
	ID    uint64
	Type  OrderType
	Side  Side
	Peg   PegType
	Price int64
	Qty   int64 // remaining unfilled quantity
	Seq   uint64

	next *Order
	prev *Order
}

// Read-only traversal helper
func (o *Order) Next() *Order {
	return o.next
}

// OrderRequest describes an incoming instruction before the engine assigns
// it an identity. Price is ignored for pegged orders; their price is
// derived from the book.
type OrderRequest struct {
	Type  OrderType
	Side  Side
	Peg   PegType
	Price int64
	Qty   int64
}
