package service

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"matchd/api/ws"
	"matchd/domain/orderbook"
	"matchd/infra/journal"
	"matchd/infra/outbox"
	"matchd/infra/sequence"
	"matchd/snapshot"
)

/*
OrderService is the ONLY write entry point into the system.

The engine itself is single-threaded; the mutex here is the external
serialization layer it requires. All coordination between:
- domain (engine)
- infra (journal, outbox)
- api (websocket hub)
happens here.
*/

type OrderService struct {
	mu sync.Mutex

	engine   *orderbook.Engine
	journal  *journal.Journal
	outbox   *outbox.Outbox
	hub      *ws.Hub
	eventSeq *sequence.Sequencer
	log      *zap.Logger
}

// NewOrderService wires all dependencies. Journal, outbox and hub may be
// nil (tests, replay tooling); the engine and logger may not.
func NewOrderService(
	engine *orderbook.Engine,
	jnl *journal.Journal,
	obx *outbox.Outbox,
	hub *ws.Hub,
	eventSeq *sequence.Sequencer,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		engine:   engine,
		journal:  jnl,
		outbox:   obx,
		hub:      hub,
		eventSeq: eventSeq,
		log:      log,
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// PlaceOrder journals the command, runs it through the engine and emits
// the report list.
func (s *OrderService) PlaceOrder(req orderbook.OrderRequest) []orderbook.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journalAppend(journal.RecordPlace, journal.EncodePlace(req))

	events := s.engine.AddOrder(req)
	s.emit(events)
	return events
}

// CancelOrder removes a resting order's book interest.
func (s *OrderService) CancelOrder(id uint64) (*orderbook.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journalAppend(journal.RecordCancel, journal.EncodeCancel(id))

	o, err := s.engine.CancelOrder(id)
	if err != nil {
		return nil, err
	}

	s.emit([]orderbook.Event{{
		Type:    orderbook.EventCancelled,
		OrderID: o.ID,
		Side:    o.Side,
		Price:   o.Price,
		Qty:     o.Qty,
	}})
	return o, nil
}

// ModifyOrder rewrites price and quantity, forfeiting time priority.
func (s *OrderService) ModifyOrder(id uint64, newPrice, newQty int64) (*orderbook.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journalAppend(journal.RecordModify, journal.EncodeModify(id, newPrice, newQty))

	o, err := s.engine.ModifyOrder(id, newPrice, newQty)
	if err != nil {
		return nil, err
	}

	s.emit([]orderbook.Event{{
		Type:    orderbook.EventModified,
		OrderID: o.ID,
		Side:    o.Side,
		Price:   o.Price,
		Qty:     o.Qty,
	}})
	return o, nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// Book returns a consistent snapshot of both sides in priority order.
func (s *OrderService) Book() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.Build(s.engine)
}

// DumpSnapshot persists the current book through the given writer.
func (s *OrderService) DumpSnapshot(w *snapshot.Writer) error {
	return w.Write(s.Book())
}

//
// ──────────────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────────────
//

func (s *OrderService) journalAppend(t journal.RecordType, data []byte) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(journal.NewRecord(t, 0, data)); err != nil {
		s.log.Error("journal append failed", zap.Error(err))
	}
}

// emit hands every event to the durable outbox and the live stream. The
// engine has already committed its state; delivery failures are logged,
// never propagated back to the caller.
func (s *OrderService) emit(events []orderbook.Event) {
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.log.Error("event encode failed", zap.Error(err))
			continue
		}

		if s.outbox != nil {
			if err := s.outbox.Put(s.eventSeq.Next(), payload); err != nil {
				s.log.Error("outbox put failed", zap.Error(err))
			}
		}
		if s.hub != nil {
			s.hub.Broadcast(payload)
		}

		switch ev.Type {
		case orderbook.EventTrade:
			s.log.Info("trade",
				zap.Uint64("taker", ev.OrderID),
				zap.Uint64("maker", ev.MakerID),
				zap.Int64("price", ev.Price),
				zap.Int64("qty", ev.Qty),
			)
		case orderbook.EventRejected:
			s.log.Warn("order rejected", zap.String("reason", ev.Reason))
		default:
			s.log.Info(ev.Type.String(),
				zap.Uint64("order", ev.OrderID),
				zap.String("side", ev.Side.String()),
				zap.Int64("price", ev.Price),
				zap.Int64("qty", ev.Qty),
			)
		}
	}
}
