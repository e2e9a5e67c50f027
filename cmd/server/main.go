package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"matchd/api/httpapi"
	"matchd/api/ws"
	"matchd/config"
	"matchd/domain/orderbook"
	"matchd/infra/feed"
	"matchd/infra/journal"
	"matchd/infra/outbox"
	"matchd/infra/sequence"
	"matchd/jobs/broadcaster"
	feedjob "matchd/jobs/feed"
	"matchd/service"
	"matchd/snapshot"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// ---------------- Journal ----------------

	jnl, err := journal.Open(journal.Config{Dir: cfg.JournalDir})
	if err != nil {
		log.Fatal("journal init failed", zap.Error(err))
	}
	defer jnl.Close()

	// ---------------- Outbox ----------------

	obx, err := outbox.Open(cfg.OutboxDir)
	if err != nil {
		log.Fatal("outbox init failed", zap.Error(err))
	}
	defer obx.Close()

	// ---------------- Domain ----------------

	ids := sequence.New(0)
	seqs := sequence.New(0)
	engine := orderbook.NewEngine(ids, seqs)

	// ---------------- Replay ----------------

	if err := service.ReplayJournal(cfg.JournalDir, engine, log); err != nil {
		log.Fatal("journal replay failed", zap.Error(err))
	}

	// ---------------- Service ----------------

	hub := ws.NewHub()

	// Resume event numbering past anything already in the outbox, so a
	// restart never overwrites an undelivered record.
	lastEventSeq, err := obx.MaxSeq()
	if err != nil {
		log.Fatal("outbox seq recovery failed", zap.Error(err))
	}
	eventSeq := sequence.New(lastEventSeq)

	svc := service.NewOrderService(engine, jnl, obx, hub, eventSeq, log)

	// ---------------- Background Jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.KafkaBrokers) > 0 {
		bc, err := broadcaster.New(obx, cfg.KafkaBrokers, cfg.EventsTopic, cfg.DrainInterval, log)
		if err != nil {
			log.Fatal("broadcaster init failed", zap.Error(err))
		}
		defer bc.Close()
		bc.Start(ctx)

		depth := feed.NewProducer(cfg.KafkaBrokers, cfg.DepthTopic)
		defer depth.Close()
		feedjob.New(svc, depth, cfg.DepthInterval, log).Start(ctx)
	} else {
		log.Info("no kafka brokers configured, running journal+outbox only")
	}

	// ---------------- HTTP ----------------

	srv := httpapi.NewServer(svc, hub, &snapshot.Writer{Dir: cfg.SnapshotDir}, log)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		cancel()
		_ = srv.Shutdown()
	}()

	log.Info("matchd running", zap.String("addr", cfg.ListenAddr))
	if err := srv.Listen(cfg.ListenAddr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
