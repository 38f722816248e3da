package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"volarbv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: keep roughly a session's worth of decisions per symbol.
	decisionStreamMaxLen = 10000
	defaultLatestTTL     = 30 * time.Minute
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer publishes decisions to Redis Streams and PubSub.
type Writer struct {
	client *goredis.Client
}

var _ model.DecisionPublisher = (*Writer)(nil)

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client}, nil
}

// Publish performs pipelined writes for one decision: XADD to the per-symbol
// stream, SET latest with TTL, and PUBLISH for real-time subscribers.
func (w *Writer) Publish(ctx context.Context, d model.Decision) error {
	jsonData := string(d.JSON())
	streamKey := d.StreamKey()
	latestKey := "decision:latest:" + d.Symbol
	pubsubCh := d.PubSubChannel()

	pipe := w.client.Pipeline()

	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey,
		MaxLen: decisionStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": jsonData,
		},
	})

	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)

	pipe.Publish(ctx, pubsubCh, jsonData)

	_, err := pipe.Exec(ctx)
	if err != nil {
		log.Printf("[redis] decision pipeline error for %s: %v", d.Symbol, err)
	}
	return err
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
