package feedjob

import (
	"context"
	"time"

	"go.uber.org/zap"

	"matchd/infra/feed"
	"matchd/service"
)

// Job publishes a depth snapshot on every tick. Best-effort: a failed
// publish is logged and skipped, the next tick sends a fresh view anyway.
type Job struct {
	svc      *service.OrderService
	producer *feed.Producer
	interval time.Duration
	log      *zap.Logger
}

func New(svc *service.OrderService, producer *feed.Producer, interval time.Duration, log *zap.Logger) *Job {
	return &Job{
		svc:      svc,
		producer: producer,
		interval: interval,
		log:      log,
	}
}

func (j *Job) Start(ctx context.Context) {
	j.log.Info("depth feed started", zap.Duration("interval", j.interval))

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
				snap := j.svc.Book()
				if err := j.producer.PublishDepth(ctx, snap); err != nil {
					j.log.Warn("depth publish failed", zap.Error(err))
				}
			}
		}
	}()
}
