package orderbook

// PriceLevel is a queue at a single price, kept in ascending seq order.
type PriceLevel struct {
	Price int64

	head *Order
	tail *Order

	TotalQty   int64
	OrderCount int
}

// Enqueue inserts o at its seq position. New arrivals carry the highest
// seq issued so far and land at the tail in O(1); only a repriced
// re-insert with an older seq walks backwards.
func (p *PriceLevel) Enqueue(o *Order) {
	at := p.tail
	for at != nil && at.Seq > o.Seq {
		at = at.prev
	}

	if at == nil {
		o.next = p.head
		if p.head != nil {
			p.head.prev = o
		} else {
			p.tail = o
		}
		p.head = o
	} else {
		o.prev = at
		o.next = at.next
		if at.next != nil {
			at.next.prev = o
		} else {
			p.tail = o
		}
		at.next = o
	}

	p.TotalQty += o.Qty
	p.OrderCount++
}

func (p *PriceLevel) PopHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}

	p.head = o.next
	if p.head != nil {
		p.head.prev = nil
	} else {
		p.tail = nil
	}

	o.next = nil
	o.prev = nil

	p.TotalQty -= o.Qty
	p.OrderCount--

	return o
}

// Unlink removes an arbitrary member. No-op when the order is not linked
// into this level.
func (p *PriceLevel) Unlink(o *Order) {
	if o.prev == nil && o.next == nil && p.head != o {
		return
	}

	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}

	o.next = nil
	o.prev = nil

	p.TotalQty -= o.Qty
	p.OrderCount--
}

// Reduce accounts for a partial fill of a member whose Qty has already
// been decremented by the matching loop.
func (p *PriceLevel) Reduce(qty int64) {
	p.TotalQty -= qty
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

// Read-only helper
func (p *PriceLevel) Head() *Order {
	return p.head
}
