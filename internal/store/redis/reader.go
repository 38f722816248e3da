package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"volarbv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int
}

// Reader provides read access to published decisions and the snapshot mirror.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a new Redis Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
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

	log.Printf("[redis-reader] connected to %s", cfg.Addr)
	return &Reader{client: client}, nil
}

// GetLatestDecision reads the most recently published decision for a symbol.
// Returns nil with no error when none exists.
func (r *Reader) GetLatestDecision(ctx context.Context, symbol string) (*model.Decision, error) {
	data, err := r.client.Get(ctx, "decision:latest:"+symbol).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get latest decision %s: %w", symbol, err)
	}

	var d model.Decision
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("unmarshal decision: %w", err)
	}
	return &d, nil
}

// ReadDecisions reads up to limit decisions for a symbol, newest entries
// first from the stream's tail (bounded above by before when non-zero),
// returned in chronological order.
func (r *Reader) ReadDecisions(ctx context.Context, symbol string, before time.Time, limit int64) ([]model.Decision, error) {
	stream := "decision:" + symbol
	upperBound := "+"
	if !before.IsZero() {
		upperBound = strconv.FormatInt(before.UnixMilli()-1, 10) + "-0"
	}

	msgs, err := r.client.XRevRangeN(ctx, stream, upperBound, "-", limit).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", stream, err)
	}

	// XRevRange yields newest-first; flip to chronological.
	decisions := make([]model.Decision, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		data, ok := msgs[i].Values["data"].(string)
		if !ok {
			continue
		}
		var d model.Decision
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			continue
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// SubscribeDecisions subscribes to the pub:decision:* PubSub pattern and
// invokes handle for each decoded decision. Blocks until ctx is cancelled.
func (r *Reader) SubscribeDecisions(ctx context.Context, handle func(model.Decision)) error {
	pubsub := r.client.PSubscribe(ctx, "pub:decision:*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var d model.Decision
			if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
				continue
			}
			handle(d)
		}
	}
}

// Ping checks connectivity to the Redis server.
func (r *Reader) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// ReadSnapshotJSON loads the registry snapshot mirror from Redis.
// Returns nil with no error when no snapshot exists.
func (r *Reader) ReadSnapshotJSON(ctx context.Context, snapshotKey string) ([]byte, error) {
	data, err := r.client.Get(ctx, snapshotKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil // no snapshot found
		}
		return nil, fmt.Errorf("redis get snapshot %s: %w", snapshotKey, err)
	}
	return []byte(data), nil
}

// WriteSnapshotJSON mirrors a registry snapshot to Redis.
func (r *Reader) WriteSnapshotJSON(ctx context.Context, snapshotKey string, data []byte) error {
	// Store with TTL of 24h (snapshots are also in SQLite for durability)
	return r.client.Set(ctx, snapshotKey, string(data), 24*time.Hour).Err()
}

// Close closes the Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}
