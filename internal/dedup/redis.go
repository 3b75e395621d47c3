package dedup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"NewsRefinery/internal/ports"
)

const redisKeyPrefix = "newsrefinery:dedup:"

// RedisStore is a DedupStore backed by redis SETNX, shared across processes.
// Keys carry no TTL: dedup idempotence covers the store lifetime.
type RedisStore struct {
	client *redis.Client
}

var _ ports.DedupStore = (*RedisStore)(nil)

// NewRedisStore wires an existing redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SetIfAbsent records the id via SETNX; redis guarantees exactly one caller
// observes the insert.
func (r *RedisStore) SetIfAbsent(ctx context.Context, originID string) (bool, error) {
	admitted, err := r.client.SetNX(ctx, redisKeyPrefix+originID, 1, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return admitted, nil
}
