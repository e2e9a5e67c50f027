package orderbook

// SideBook holds the resting orders of one side in price-time priority.
// Buy priority is descending price, sell priority ascending; FIFO order
// within a level breaks ties.
type SideBook struct {
	side  Side
	tree  *RBTree
	count int
}

func NewSideBook(side Side) *SideBook {
	return &SideBook{
		side: side,
		tree: NewRBTree(),
	}
}

func (s *SideBook) Len() int { return s.count }

func (s *SideBook) Levels() int { return s.tree.Size() }

// BestLevel returns the highest-priority price level, nil when empty.
func (s *SideBook) BestLevel() *PriceLevel {
	if s.side == Buy {
		return s.tree.MaxLevel()
	}
	return s.tree.MinLevel()
}

// Peek returns the best-priority resting order without removing it.
func (s *SideBook) Peek() *Order {
	lvl := s.BestLevel()
	if lvl == nil {
		return nil
	}
	return lvl.Head()
}

// Pop removes and returns the best-priority resting order.
func (s *SideBook) Pop() *Order {
	lvl := s.BestLevel()
	if lvl == nil {
		return nil
	}
	o := lvl.PopHead()
	if lvl.Empty() {
		s.tree.DeleteLevel(lvl.Price)
	}
	if o != nil {
		s.count--
	}
	return o
}

func (s *SideBook) Insert(o *Order) {
	s.tree.UpsertLevel(o.Price).Enqueue(o)
	s.count++
}

// Remove deletes an arbitrary resting order. No-op when the order is not
// a member of this side.
func (s *SideBook) Remove(o *Order) {
	lvl := s.tree.FindLevel(o.Price)
	if lvl == nil {
		return
	}
	before := lvl.OrderCount
	lvl.Unlink(o)
	if lvl.OrderCount < before {
		s.count--
	}
	if lvl.Empty() {
		s.tree.DeleteLevel(lvl.Price)
	}
}

// dropIfEmpty prunes a level fully consumed by the matching loop.
func (s *SideBook) dropIfEmpty(lvl *PriceLevel) {
	if lvl.Empty() {
		s.tree.DeleteLevel(lvl.Price)
	}
}

// BestQuote returns the best price among non-pegged resting orders, the
// reference for peg repricing. ok is false when no eligible order exists.
func (s *SideBook) BestQuote() (price int64, ok bool) {
	s.Walk(func(o *Order) bool {
		if o.Peg == PegNone {
			price = o.Price
			ok = true
			return false
		}
		return true
	})
	return price, ok
}

// Walk visits every resting order in priority order.
func (s *SideBook) Walk(fn func(*Order) bool) {
	visit := func(lvl *PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			if !fn(o) {
				return false
			}
		}
		return true
	}
	if s.side == Buy {
		s.tree.ForEachDescending(visit)
	} else {
		s.tree.ForEachAscending(visit)
	}
}
