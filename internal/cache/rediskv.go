// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/rueidis"
)

// redisKeyPrefix namespaces cache keys in a shared Redis instance.
const redisKeyPrefix = "topicsmith:cache:"

// RedisKV is the Redis-backed persistent cache tier.
type RedisKV struct {
	client rueidis.Client
}

// RedisConfig holds connection parameters for the Redis tier.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// NewRedisKV creates a Redis cache tier via rueidis.
func NewRedisKV(cfg RedisConfig) (*RedisKV, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating redis client: %w", err)
	}
	return &RedisKV{client: client}, nil
}

// Close shuts down the client.
func (r *RedisKV) Close() {
	r.client.Close()
}

// Get retrieves a value by key.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := r.client.B().Get().Key(redisKeyPrefix + key).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return data, nil
}

// Set stores a value at the given key.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	cmd := r.client.B().Set().Key(redisKeyPrefix + key).Value(string(value)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	cmd := r.client.B().Del().Key(redisKeyPrefix + key).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// Keys returns every stored key, stripped of the namespace prefix.
func (r *RedisKV) Keys(ctx context.Context) ([]string, error) {
	cmd := r.client.B().Keys().Pattern(redisKeyPrefix + "*").Build()
	raw, err := r.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("cache keys: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, redisKeyPrefix))
	}
	return keys, nil
}

// Len returns the number of stored entries.
func (r *RedisKV) Len(ctx context.Context) (int, error) {
	keys, err := r.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
