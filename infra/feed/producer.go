package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"matchd/snapshot"
)

// Producer publishes best-effort book depth snapshots. Unlike the outbox
// path this is fire-and-forget market data, not a delivery guarantee.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) PublishDepth(ctx context.Context, snap snapshot.Snapshot) error {
	value, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("depth"),
		Value: value,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
