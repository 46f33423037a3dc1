package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds configuration for the Redis-backed index.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces keys so several services can share one Redis.
	Prefix string
}

// RedisIndex is a Redis-backed Index. Entries are stored as JSON values
// under prefixed keys with no TTL; cached images never expire on their own.
type RedisIndex struct {
	client *redis.Client
	prefix string
}

// redisEntry is the stored JSON shape.
type redisEntry struct {
	ArtifactRef string    `json:"artifact_ref"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRedisIndex creates a Redis-backed index. The connection is verified
// lazily; call Ping to fail fast at startup.
func NewRedisIndex(config RedisConfig) *RedisIndex {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisIndex{client: client, prefix: config.Prefix}
}

// NewRedisIndexWithClient wraps an existing client, mainly for tests.
func NewRedisIndexWithClient(client *redis.Client, prefix string) *RedisIndex {
	return &RedisIndex{client: client, prefix: prefix}
}

// redisKey builds the namespaced Redis key.
func (r *RedisIndex) redisKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Lookup returns the entry for key, or ErrNotFound on a clean miss.
func (r *RedisIndex) Lookup(ctx context.Context, key string) (Entry, error) {
	data, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("cache: redis get failed: %w", err)
	}

	var stored redisEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return Entry{}, fmt.Errorf("cache: corrupt redis entry for key: %w", err)
	}

	return Entry{Key: key, ArtifactRef: stored.ArtifactRef, CreatedAt: stored.CreatedAt}, nil
}

// Insert records a new mapping. A plain SET, not SET NX: the last concurrent
// writer wins, matching the accepted duplicate-generation race.
func (r *RedisIndex) Insert(ctx context.Context, key, artifactRef string) (Entry, error) {
	entry := Entry{
		Key:         key,
		ArtifactRef: artifactRef,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(redisEntry{ArtifactRef: entry.ArtifactRef, CreatedAt: entry.CreatedAt})
	if err != nil {
		return Entry{}, fmt.Errorf("cache: failed to encode entry: %w", err)
	}

	if err := r.client.Set(ctx, r.redisKey(key), data, 0).Err(); err != nil {
		return Entry{}, fmt.Errorf("cache: redis set failed: %w", err)
	}
	return entry, nil
}

// Delete removes the entry for key.
func (r *RedisIndex) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("cache: redis del failed: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *RedisIndex) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (r *RedisIndex) Close() error {
	return r.client.Close()
}

var _ Index = (*RedisIndex)(nil)
