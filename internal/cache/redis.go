package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chargewise/charge-finder/internal/translate"
)

const redisKeyPrefix = "chargefinder:query:"

// RedisStore keeps cache entries in Redis with a TTL instead of the file
// store's hit-count eviction. Expiry replaces capacity management, so the
// store never evicts by hand.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (translate.Query, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return translate.Query{}, ErrCacheMiss
	}
	if err != nil {
		return translate.Query{}, fmt.Errorf("redis get failed: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return translate.Query{}, fmt.Errorf("failed to parse cache entry: %w", err)
	}

	e.Hits++
	e.LastAccess = time.Now().UTC()
	if raw, err = json.Marshal(&e); err == nil {
		// Keep the original expiry; a read is not a reason to extend it.
		s.client.Set(ctx, redisKeyPrefix+key, raw, redis.KeepTTL)
	}
	return e.Query, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, q translate.Query) error {
	now := time.Now().UTC()
	raw, err := json.Marshal(&Entry{Query: q, CreatedAt: now, LastAccess: now})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Len implements Store.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed: %w", err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
