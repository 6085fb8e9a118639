package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cpi:"

// RedisStore keeps CPI records in Redis so that replicas share one cache.
// Expiry is native Redis TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects lazily to the Redis server at addr.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Get returns the record under key. redis.Nil is reported as a miss.
func (s *RedisStore) Get(ctx context.Context, key string) (domain.CPIRecord, bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CPIRecord{}, false, nil
	}
	if err != nil {
		return domain.CPIRecord{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var rec domain.CPIRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.CPIRecord{}, false, fmt.Errorf("decode cached record %s: %w", key, err)
	}
	return rec, true, nil
}

// Set stores rec under key with the given ttl.
func (s *RedisStore) Set(ctx context.Context, key string, rec domain.CPIRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity to the Redis server.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
