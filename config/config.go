package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string

	JournalDir  string
	OutboxDir   string
	SnapshotDir string

	KafkaBrokers  []string
	EventsTopic   string
	DepthTopic    string
	DepthInterval time.Duration
	DrainInterval time.Duration
}

// Load reads everything from the environment with working defaults.
// Kafka is optional: with no brokers configured the server runs with the
// journal and outbox only.
func Load() *Config {
	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		JournalDir:    getEnv("JOURNAL_DIR", "./data/journal"),
		OutboxDir:     getEnv("OUTBOX_DIR", "./data/outbox"),
		SnapshotDir:   getEnv("SNAPSHOT_DIR", "./data/snapshots"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		EventsTopic:   getEnv("EVENTS_TOPIC", "matchd.events"),
		DepthTopic:    getEnv("DEPTH_TOPIC", "matchd.depth"),
		DepthInterval: getDuration("DEPTH_INTERVAL", time.Second),
		DrainInterval: getDuration("DRAIN_INTERVAL", 250*time.Millisecond),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
