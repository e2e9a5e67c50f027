package orderbook

import (
	"testing"

	"matchd/infra/sequence"
)

func newTestEngine() *Engine {
	return NewEngine(sequence.New(0), sequence.New(0))
}

func limit(side Side, price, qty int64) OrderRequest {
	return OrderRequest{Type: Limit, Side: side, Price: price, Qty: qty}
}

func market(side Side, qty int64) OrderRequest {
	return OrderRequest{Type: Market, Side: side, Qty: qty}
}

func pegged(side Side, peg PegType, qty int64) OrderRequest {
	return OrderRequest{Type: Limit, Side: side, Peg: peg, Qty: qty}
}

func collectBids(e *Engine) []*Order {
	var out []*Order
	e.BidsWalk(func(o *Order) bool {
		out = append(out, o)
		return true
	})
	return out
}

func collectAsks(e *Engine) []*Order {
	var out []*Order
	e.AsksWalk(func(o *Order) bool {
		out = append(out, o)
		return true
	})
	return out
}

func trades(events []Event) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == EventTrade {
			out = append(out, ev)
		}
	}
	return out
}

func hasEvent(events []Event, t EventType) bool {
	for _, ev := range events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

// --- Price/time priority ---

func TestBuyPricePriority(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 4, 50))
	e.AddOrder(limit(Buy, 3, 100))

	got := collectBids(e)
	if len(got) != 2 {
		t.Fatalf("expected 2 resting bids, got %d", len(got))
	}
	if got[0].Price != 4 || got[0].Qty != 50 {
		t.Errorf("best bid = (%d, %d), want (4, 50)", got[0].Price, got[0].Qty)
	}
	if got[1].Price != 3 || got[1].Qty != 100 {
		t.Errorf("second bid = (%d, %d), want (3, 100)", got[1].Price, got[1].Qty)
	}
}

func TestSellPricePriority(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Sell, 9, 10))
	e.AddOrder(limit(Sell, 7, 10))
	e.AddOrder(limit(Sell, 8, 10))

	got := collectAsks(e)
	if len(got) != 3 {
		t.Fatalf("expected 3 resting asks, got %d", len(got))
	}
	for i, want := range []int64{7, 8, 9} {
		if got[i].Price != want {
			t.Errorf("ask[%d].Price = %d, want %d", i, got[i].Price, want)
		}
	}
}

func TestTimePriorityAtSamePrice(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 5, 10))
	e.AddOrder(limit(Buy, 5, 20))
	e.AddOrder(limit(Buy, 5, 30))

	got := collectBids(e)
	if len(got) != 3 {
		t.Fatalf("expected 3 resting bids, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Seq >= got[i].Seq {
			t.Errorf("bids at price 5 not in arrival order: seq %d before %d",
				got[i-1].Seq, got[i].Seq)
		}
	}

	// First arrival fills first.
	events := e.AddOrder(limit(Sell, 5, 10))
	tr := trades(events)
	if len(tr) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(tr))
	}
	if tr[0].Qty != 10 {
		t.Errorf("trade qty = %d, want 10 (earliest order's full size)", tr[0].Qty)
	}
	if rest := collectBids(e); rest[0].Qty != 20 {
		t.Errorf("new head qty = %d, want 20", rest[0].Qty)
	}
}

// --- Matching ---

func TestTradeAtRestingPrice(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 4, 50))
	e.AddOrder(limit(Buy, 3, 100))

	events := e.AddOrder(limit(Sell, 4, 250))

	tr := trades(events)
	if len(tr) != 1 {
		t.Fatalf("expected exactly 1 trade, got %d", len(tr))
	}
	if tr[0].Price != 4 || tr[0].Qty != 50 {
		t.Errorf("trade = (%d, %d), want (4, 50)", tr[0].Price, tr[0].Qty)
	}
	if !hasEvent(events, EventRested) {
		t.Error("sell remainder should rest")
	}

	asks := collectAsks(e)
	if len(asks) != 1 || asks[0].Price != 4 || asks[0].Qty != 200 {
		t.Errorf("resting ask wrong: %+v", asks)
	}
	// The price=3 buy does not cross 4 and must survive.
	bids := collectBids(e)
	if len(bids) != 1 || bids[0].Price != 3 || bids[0].Qty != 100 {
		t.Errorf("resting bid wrong: %+v", bids)
	}
}

func TestAggressorPriceImprovement(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Sell, 4, 10))

	// Buyer willing to pay 6 still trades at the resting 4.
	events := e.AddOrder(limit(Buy, 6, 10))
	tr := trades(events)
	if len(tr) != 1 || tr[0].Price != 4 {
		t.Fatalf("trade price = %v, want 4 (resting price)", tr)
	}
}

func TestMatchWalksLevels(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Sell, 4, 10))
	e.AddOrder(limit(Sell, 5, 10))
	e.AddOrder(limit(Sell, 6, 10))

	events := e.AddOrder(limit(Buy, 5, 25))

	tr := trades(events)
	if len(tr) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(tr))
	}
	if tr[0].Price != 4 || tr[1].Price != 5 {
		t.Errorf("trade prices = %d, %d; want 4, 5", tr[0].Price, tr[1].Price)
	}
	// 5 unfilled at price 5 rests; the ask at 6 is untouched.
	bids := collectBids(e)
	if len(bids) != 1 || bids[0].Qty != 5 || bids[0].Price != 5 {
		t.Errorf("resting bid wrong: %+v", bids)
	}
}

func TestPartialFillKeepsMakerPriority(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Sell, 5, 100))
	e.AddOrder(limit(Sell, 5, 50))

	maker := collectAsks(e)[0]
	makerSeq := maker.Seq

	e.AddOrder(limit(Buy, 5, 40))

	asks := collectAsks(e)
	if asks[0].ID != maker.ID {
		t.Fatal("partially consumed maker lost its head position")
	}
	if asks[0].Seq != makerSeq {
		t.Errorf("maker seq changed %d -> %d on partial fill", makerSeq, asks[0].Seq)
	}
	if asks[0].Qty != 60 {
		t.Errorf("maker qty = %d, want 60", asks[0].Qty)
	}
}

// --- Market orders ---

func TestMarketOrderUnfilledRemainder(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Sell, 4, 200))

	events := e.AddOrder(market(Buy, 400))

	tr := trades(events)
	if len(tr) != 1 || tr[0].Price != 4 || tr[0].Qty != 200 {
		t.Fatalf("trade = %+v, want one (4, 200)", tr)
	}

	var remainder *Event
	for i := range events {
		if events[i].Type == EventMarketUnfilled {
			remainder = &events[i]
		}
	}
	if remainder == nil {
		t.Fatal("missing market-unfilled event")
	}
	if remainder.Qty != 200 {
		t.Errorf("unfilled qty = %d, want 200", remainder.Qty)
	}
}

func TestMarketOrderNeverRests(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(market(Buy, 100))
	e.AddOrder(limit(Sell, 4, 10))
	e.AddOrder(market(Buy, 100))

	if n := len(collectBids(e)); n != 0 {
		t.Errorf("market orders left %d bids resting", n)
	}
	if e.Resting() != 0 {
		t.Errorf("index holds %d orders, want 0", e.Resting())
	}
}

func TestMarketOrderEmptyBook(t *testing.T) {
	e := newTestEngine()
	events := e.AddOrder(market(Sell, 50))

	if len(trades(events)) != 0 {
		t.Error("no trades possible against an empty book")
	}
	if !hasEvent(events, EventMarketUnfilled) {
		t.Error("expected unfilled remainder for the whole size")
	}
}

// --- Pegged orders ---

func TestPeggedBuyTracksBestBid(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 7, 100))

	events := e.AddOrder(pegged(Buy, PegBid, 10))
	if !hasEvent(events, EventRested) {
		t.Fatal("pegged order should rest")
	}

	bids := collectBids(e)
	if len(bids) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(bids))
	}
	var peg *Order
	for _, o := range bids {
		if o.Peg == PegBid {
			peg = o
		}
	}
	if peg == nil {
		t.Fatal("pegged order missing from book")
	}
	if peg.Price != 7 {
		t.Errorf("pegged price = %d, want 7 (best non-pegged bid)", peg.Price)
	}
}

func TestPeggedReseatsWhenReferenceMoves(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 7, 100))
	e.AddOrder(pegged(Buy, PegBid, 10))

	// A better non-pegged bid arrives; intake on the buy side triggers
	// the repricing pass.
	e.AddOrder(limit(Buy, 9, 5))

	for _, o := range collectBids(e) {
		if o.Peg == PegBid && o.Price != 9 {
			t.Errorf("pegged price = %d, want 9", o.Price)
		}
	}
}

func TestPeggedRepriceAfterBuySideTrade(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 7, 100))
	e.AddOrder(limit(Buy, 9, 5))
	e.AddOrder(pegged(Buy, PegBid, 10))

	if q, ok := e.bids.BestQuote(); !ok || q != 9 {
		t.Fatalf("best non-pegged bid = (%d, %v), want (9, true)", q, ok)
	}

	// Consume the 9 bid entirely, then trigger a buy-side pass with the
	// next incoming buy.
	e.AddOrder(limit(Sell, 9, 5))
	e.AddOrder(limit(Buy, 2, 1))

	for _, o := range collectBids(e) {
		if o.Peg == PegBid && o.Price != 7 {
			t.Errorf("pegged price = %d, want 7 after reference fell back", o.Price)
		}
	}
}

func TestPeggedWithoutReferenceStaysUnset(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Sell, 5, 10))

	// No non-pegged buys exist, so the peg has no reference and must not
	// cross the ask at 5.
	events := e.AddOrder(pegged(Buy, PegBid, 10))
	if len(trades(events)) != 0 {
		t.Fatal("priceless pegged order must not trade")
	}

	bids := collectBids(e)
	if len(bids) != 1 || bids[0].Price != 0 {
		t.Fatalf("pegged order should rest with unset price, got %+v", bids)
	}
}

func TestPeggedIgnoresPeggedReference(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 7, 10))
	e.AddOrder(pegged(Buy, PegBid, 5)) // priced 7, but not a valid reference

	e.AddOrder(limit(Sell, 7, 10)) // removes the only non-pegged bid
	events := e.AddOrder(pegged(Buy, PegBid, 5))

	if len(trades(events)) != 0 {
		t.Fatal("unexpected trade")
	}
	var fresh *Order
	for _, o := range collectBids(e) {
		if o.Qty == 5 && o.Seq == e.LastSeq() {
			fresh = o
		}
	}
	if fresh == nil {
		t.Fatal("second pegged order missing")
	}
	if fresh.Price != 0 {
		t.Errorf("pegged price = %d, want 0: pegged orders are not references", fresh.Price)
	}
}

func TestPeggedKeepsTimePriorityWhenPriceUnchanged(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 7, 100))
	e.AddOrder(pegged(Buy, PegBid, 10)) // priced 7, second at the level
	e.AddOrder(limit(Buy, 7, 20))       // third at the level

	// The intake above ran a repricing pass that re-seated the peg at an
	// unchanged price; seq order within the level must survive it.
	var seqs []uint64
	for _, o := range collectBids(e) {
		seqs = append(seqs, o.Seq)
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i-1] >= seqs[i] {
			t.Fatalf("level order broken after reprice: %v", seqs)
		}
	}
}

// --- Cancel ---

func TestCancelRestingOrder(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 5, 10))
	id := collectBids(e)[0].ID

	o, err := e.CancelOrder(id)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.ID != id {
		t.Errorf("cancelled id = %d, want %d", o.ID, id)
	}
	if e.Resting() != 0 || len(collectBids(e)) != 0 {
		t.Error("cancelled order still present")
	}
}

func TestCancelAbsentIsIdempotent(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 5, 10))

	for i := 0; i < 3; i++ {
		if _, err := e.CancelOrder(999); err != ErrOrderNotFound {
			t.Fatalf("cancel unknown id: err = %v, want ErrOrderNotFound", err)
		}
	}
	if e.Resting() != 1 {
		t.Error("cancelling an unknown id mutated the book")
	}
}

// --- Modify ---

func TestModifyForfeitsPriority(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 5, 10))
	e.AddOrder(limit(Buy, 5, 20))
	first := collectBids(e)[0]

	o, err := e.ModifyOrder(first.ID, 5, 15)
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if o.Seq != e.LastSeq() {
		t.Error("modified order must carry the newest seq")
	}

	got := collectBids(e)
	if got[len(got)-1].ID != first.ID {
		t.Error("modified order should re-seat at the back of its level")
	}
	if got[len(got)-1].Qty != 15 {
		t.Errorf("modified qty = %d, want 15", got[len(got)-1].Qty)
	}
}

func TestModifyMovesPriceLevel(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Sell, 5, 10))
	e.AddOrder(limit(Sell, 6, 10))
	worst := collectAsks(e)[1]

	if _, err := e.ModifyOrder(worst.ID, 4, 10); err != nil {
		t.Fatalf("modify: %v", err)
	}

	got := collectAsks(e)
	if got[0].ID != worst.ID || got[0].Price != 4 {
		t.Errorf("modified order should now head the ask side at 4, got %+v", got[0])
	}
}

func TestModifyInvalidArgument(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 5, 10))
	o := collectBids(e)[0]
	seq := o.Seq

	for _, bad := range []struct{ price, qty int64 }{
		{0, 10}, {-1, 10}, {5, 0}, {5, -3},
	} {
		if _, err := e.ModifyOrder(o.ID, bad.price, bad.qty); err != ErrInvalidArgument {
			t.Fatalf("modify(%d, %d): err = %v, want ErrInvalidArgument", bad.price, bad.qty, err)
		}
	}

	// No partial mutation on failure.
	got := collectBids(e)[0]
	if got.Price != 5 || got.Qty != 10 || got.Seq != seq {
		t.Errorf("order mutated by failed modify: %+v", got)
	}
}

func TestModifyNotFound(t *testing.T) {
	e := newTestEngine()
	if _, err := e.ModifyOrder(42, 5, 10); err != ErrOrderNotFound {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

// --- Validation ---

func TestRejectInvalidSide(t *testing.T) {
	e := newTestEngine()
	events := e.AddOrder(OrderRequest{Type: Limit, Side: Side(7), Price: 5, Qty: 10})

	if len(events) != 1 || events[0].Type != EventRejected {
		t.Fatalf("events = %+v, want a single reject", events)
	}
	if e.Resting() != 0 {
		t.Error("rejected order left state behind")
	}
}

func TestRejectInvalidType(t *testing.T) {
	e := newTestEngine()
	events := e.AddOrder(OrderRequest{Type: OrderType(9), Side: Buy, Price: 5, Qty: 10})

	if len(events) != 1 || events[0].Type != EventRejected {
		t.Fatalf("events = %+v, want a single reject", events)
	}
	if e.Resting() != 0 {
		t.Error("rejected order left state behind")
	}
}

// --- Invariants ---

func TestIndexMirrorsQueues(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 5, 10))
	e.AddOrder(limit(Buy, 6, 10))
	e.AddOrder(limit(Sell, 9, 10))
	e.AddOrder(limit(Sell, 6, 5)) // trades against the 6 bid

	queued := append(collectBids(e), collectAsks(e)...)
	if len(queued) != e.Resting() {
		t.Fatalf("queues hold %d orders, index holds %d", len(queued), e.Resting())
	}
	for _, o := range queued {
		got, ok := e.Lookup(o.ID)
		if !ok || got != o {
			t.Errorf("order %d not reachable through index", o.ID)
		}
		if o.Qty <= 0 {
			t.Errorf("order %d resting with qty %d", o.ID, o.Qty)
		}
	}
}

func TestSeqsStrictlyMonotonic(t *testing.T) {
	e := newTestEngine()
	e.AddOrder(limit(Buy, 5, 10))
	e.AddOrder(limit(Buy, 6, 10))
	e.AddOrder(limit(Sell, 9, 10))

	seen := make(map[uint64]bool)
	for _, o := range append(collectBids(e), collectAsks(e)...) {
		if seen[o.Seq] {
			t.Fatalf("duplicate seq %d", o.Seq)
		}
		seen[o.Seq] = true
	}
}
