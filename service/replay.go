package service

import (
	"go.uber.org/zap"

	"matchd/domain/orderbook"
	"matchd/infra/journal"
)

/*
ReplayJournal rebuilds engine state from the command journal.

IMPORTANT:
- This MUST run before accepting traffic
- The outbox is NOT replayed; its records survive in pebble
*/

func ReplayJournal(dir string, engine *orderbook.Engine, log *zap.Logger) error {
	var applied int

	lastSeq, err := journal.Scan(dir, func(rec *journal.Record) error {
		switch rec.Type {
		case journal.RecordPlace:
			req, err := journal.DecodePlace(rec.Data)
			if err != nil {
				return err
			}
			engine.AddOrder(req)

		case journal.RecordCancel:
			id, err := journal.DecodeCancel(rec.Data)
			if err != nil {
				return err
			}
			// NotFound is expected: the journal also holds commands that
			// failed the first time. Replay must fail identically.
			_, _ = engine.CancelOrder(id)

		case journal.RecordModify:
			id, price, qty, err := journal.DecodeModify(rec.Data)
			if err != nil {
				return err
			}
			_, _ = engine.ModifyOrder(id, price, qty)
		}

		applied++
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("journal replay complete",
		zap.Int("records", applied),
		zap.Uint64("last_journal_seq", lastSeq),
		zap.Int("resting", engine.Resting()),
	)
	return nil
}
