package snapshot

import (
	"time"

	"matchd/domain/orderbook"
)

// Snapshot is the read-only view of the book: both sides in priority
// order. It doubles as the API/feed DTO and the state-dump format.
type Snapshot struct {
	Seq     uint64       `json:"seq"`
	Created time.Time    `json:"created"`
	Bids    []OrderEntry `json:"bids"`
	Asks    []OrderEntry `json:"asks"`
}

type OrderEntry struct {
	ID    uint64 `json:"id"`
	Type  string `json:"type"`
	Peg   string `json:"peg,omitempty"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
	Seq   uint64 `json:"seq"`
}

// Build captures the current book. The caller must hold whatever lock
// serializes engine access.
func Build(e *orderbook.Engine) Snapshot {
	s := Snapshot{
		Seq:     e.LastSeq(),
		Created: time.Now(),
		Bids:    make([]OrderEntry, 0, 64),
		Asks:    make([]OrderEntry, 0, 64),
	}

	e.BidsWalk(func(o *orderbook.Order) bool {
		s.Bids = append(s.Bids, entryFor(o))
		return true
	})
	e.AsksWalk(func(o *orderbook.Order) bool {
		s.Asks = append(s.Asks, entryFor(o))
		return true
	})
	return s
}

func entryFor(o *orderbook.Order) OrderEntry {
	e := OrderEntry{
		ID:    o.ID,
		Type:  o.Type.String(),
		Price: o.Price,
		Qty:   o.Qty,
		Seq:   o.Seq,
	}
	if o.Peg != orderbook.PegNone {
		e.Peg = o.Peg.String()
	}
	return e
}
