// Package cache holds shared result caches for transcription analyses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/timeline"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces cadence keys in a shared Redis.
const DefaultPrefix = "cadence:analysis:"

// Redis caches analyses as JSON strings with a TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ingest.Cache = (*Redis)(nil)

// entry is the stored value.
type entry struct {
	FileName string            `json:"file_name"`
	Source   string            `json:"source"`
	SavedAt  time.Time         `json:"saved_at"`
	Analysis timeline.Analysis `json:"analysis"`
}

// ConnectRedis establishes a connection to Redis at addr.
func ConnectRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedis(client, DefaultPrefix, ttl), nil
}

// NewRedis wraps an existing client. A zero ttl keeps entries forever.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key for a cache key.
func (r *Redis) Key(key string) string { return r.prefix + key }

// Lookup implements ingest.Cache.
func (r *Redis) Lookup(ctx context.Context, key string) (timeline.Analysis, bool, error) {
	data, err := r.client.Get(ctx, r.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return timeline.Analysis{}, false, nil
	}
	if err != nil {
		return timeline.Analysis{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return timeline.Analysis{}, false, fmt.Errorf("decode cached analysis: %w", err)
	}
	return e.Analysis, true, nil
}

// Save implements ingest.Cache.
func (r *Redis) Save(ctx context.Context, key string, up ingest.Upload, a timeline.Analysis) error {
	data, err := json.Marshal(entry{FileName: up.Name, Source: up.Source, SavedAt: time.Now().UTC(), Analysis: a})
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := r.client.Set(ctx, r.Key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
