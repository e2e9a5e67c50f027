package orderbook

import (
	"errors"

	"matchd/infra/sequence"
)

var (
	// ErrOrderNotFound is returned by cancel/modify for an id that is not
	// resting in the book.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidArgument rejects a modify with non-positive price or
	// quantity. The order is left untouched.
	ErrInvalidArgument = errors.New("invalid price or quantity")
)

// Engine is the single-instrument matching core. It is single-writer and
// deterministic: callers must serialize access externally, the engine
// holds no locks of its own.
//
// Identity generators are injected so replay and tests can control the
// id/seq streams.
type Engine struct {
	bids  *SideBook
	asks  *SideBook
	index map[uint64]*Order

	ids  *sequence.Sequencer
	seqs *sequence.Sequencer
}

func NewEngine(ids, seqs *sequence.Sequencer) *Engine {
	return &Engine{
		bids:  NewSideBook(Buy),
		asks:  NewSideBook(Sell),
		index: make(map[uint64]*Order),
		ids:   ids,
		seqs:  seqs,
	}
}

// AddOrder runs the full intake path: validate, assign identity, derive a
// pegged price, match against the opposite side, rest or discard the
// remainder, then reprice every pegged order on the incoming side. It
// returns the report list; rejected orders leave no state behind.
func (e *Engine) AddOrder(req OrderRequest) []Event {
	if req.Side != Buy && req.Side != Sell {
		return []Event{{Type: EventRejected, Reason: "invalid order side"}}
	}
	if req.Type != Limit && req.Type != Market {
		return []Event{{Type: EventRejected, Side: req.Side, Reason: "invalid order type"}}
	}

	o := &Order{
		ID:    e.ids.Next(),
		Type:  req.Type,
		Side:  req.Side,
		Peg:   req.Peg,
		Price: req.Price,
		Qty:   req.Qty,
		Seq:   e.seqs.Next(),
	}
	if o.Peg != PegNone {
		// Derived, never author-set. Stays 0 until a reference exists.
		o.Price = 0
		e.repriceOne(o)
	}

	events := e.match(o, nil)

	switch {
	case o.Type == Limit && o.Qty > 0:
		e.sameSide(o.Side).Insert(o)
		e.index[o.ID] = o
		events = append(events, Event{
			Type:    EventRested,
			OrderID: o.ID,
			Side:    o.Side,
			Price:   o.Price,
			Qty:     o.Qty,
		})
	case o.Type == Market && o.Qty > 0:
		// Liquidity ran out; the remainder never rests.
		events = append(events, Event{
			Type:    EventMarketUnfilled,
			OrderID: o.ID,
			Side:    o.Side,
			Qty:     o.Qty,
		})
	}

	e.repriceAll(o.Side)
	return events
}

// CancelOrder removes a resting order's book interest.
func (e *Engine) CancelOrder(id uint64) (*Order, error) {
	o, ok := e.index[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	delete(e.index, id)
	e.sameSide(o.Side).Remove(o)
	return o, nil
}

// ModifyOrder rewrites price and quantity and re-seats the order at the
// back of its new level with a fresh seq. Time priority is forfeited
// unconditionally, even on a pure quantity decrease.
func (e *Engine) ModifyOrder(id uint64, newPrice, newQty int64) (*Order, error) {
	o, ok := e.index[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if newPrice <= 0 || newQty <= 0 {
		return nil, ErrInvalidArgument
	}

	book := e.sameSide(o.Side)
	book.Remove(o)
	o.Price = newPrice
	o.Qty = newQty
	o.Seq = e.seqs.Next()
	book.Insert(o)
	return o, nil
}

// Lookup returns a resting order by id.
func (e *Engine) Lookup(id uint64) (*Order, bool) {
	o, ok := e.index[id]
	return o, ok
}

// Resting returns the number of orders currently in the book.
func (e *Engine) Resting() int {
	return len(e.index)
}

func (e *Engine) BidsWalk(fn func(*Order) bool) { e.bids.Walk(fn) }
func (e *Engine) AsksWalk(fn func(*Order) bool) { e.asks.Walk(fn) }

// LastSeq reports the latest issued arrival seq.
func (e *Engine) LastSeq() uint64 {
	return e.seqs.Current()
}

// ---- matching ----

func (e *Engine) match(o *Order, events []Event) []Event {
	opp := e.oppositeSide(o.Side)

	for o.Qty > 0 {
		best := opp.BestLevel()
		if best == nil {
			break
		}
		if o.Type == Limit && !crosses(o, best.Price) {
			break
		}

		maker := best.Head()
		traded := min64(o.Qty, maker.Qty)

		o.Qty -= traded
		maker.Qty -= traded
		best.Reduce(traded)

		// Price improvement always favors the order that was waiting.
		events = append(events, Event{
			Type:    EventTrade,
			OrderID: o.ID,
			MakerID: maker.ID,
			Side:    o.Side,
			Price:   best.Price,
			Qty:     traded,
		})

		if maker.Qty == 0 {
			best.PopHead()
			opp.count--
			delete(e.index, maker.ID)
			opp.dropIfEmpty(best)
		}
		// A partially consumed maker stays at the head of its level: it
		// has not been displaced, only reduced.
	}
	return events
}

func crosses(o *Order, bestOpp int64) bool {
	if o.Side == Buy {
		return bestOpp <= o.Price
	}
	return bestOpp >= o.Price
}

// ---- peg repricing ----

// repriceOne derives a pegged order's price from the best non-pegged
// price on its reference side. A peg that does not match its side, or a
// side with no non-pegged orders, leaves the price as it was.
func (e *Engine) repriceOne(o *Order) {
	var ref int64
	var ok bool
	switch {
	case o.Peg == PegBid && o.Side == Buy:
		ref, ok = e.bids.BestQuote()
	case o.Peg == PegOffer && o.Side == Sell:
		ref, ok = e.asks.BestQuote()
	}
	if ok && ref > 0 {
		o.Price = ref
	}
}

// repriceAll re-seats every pegged order resting on side. Each one is
// removed before repricing: the tree's ordering depends on price and must
// never hold a stale key.
func (e *Engine) repriceAll(side Side) {
	book := e.sameSide(side)

	var pegged []*Order
	book.Walk(func(o *Order) bool {
		if o.Peg != PegNone {
			pegged = append(pegged, o)
		}
		return true
	})

	for _, o := range pegged {
		book.Remove(o)
		e.repriceOne(o)
		book.Insert(o)
	}
}

// ---- helpers ----

func (e *Engine) sameSide(s Side) *SideBook {
	if s == Buy {
		return e.bids
	}
	return e.asks
}

func (e *Engine) oppositeSide(s Side) *SideBook {
	if s == Buy {
		return e.asks
	}
	return e.bids
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
