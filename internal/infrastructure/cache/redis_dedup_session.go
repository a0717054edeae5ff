package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/retreat/backend/internal/domain/ledger"
)

const defaultDedupKeyPrefix = "ledger:dedup:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisDedupSession implements ledger.DedupSession on a Redis set, one set per session id.
// SADD reports whether a member was new, which makes Claim atomic across instances.
type RedisDedupSession struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisDedupSession creates a session stored under prefix+sessionID
func NewRedisDedupSession(client *redis.Client, keyPrefix, sessionID string, ttl time.Duration) *RedisDedupSession {
	if keyPrefix == "" {
		keyPrefix = defaultDedupKeyPrefix
	}
	return &RedisDedupSession{
		client: client,
		key:    keyPrefix + sessionID,
		ttl:    ttl,
	}
}

// Key returns the Redis key backing the session
func (s *RedisDedupSession) Key() string {
	return s.key
}

// Reset drops the session set
func (s *RedisDedupSession) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to reset dedup session: %w", err)
	}
	return nil
}

// Seed adds keys to the session set
func (s *RedisDedupSession) Seed(ctx context.Context, keys ...ledger.DedupKey) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k.String()
	}

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.key, members...)
	s.expire(ctx, pipe)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed dedup session: %w", err)
	}
	return nil
}

// Claim returns true if the key was newly added to the session set
func (s *RedisDedupSession) Claim(ctx context.Context, key ledger.DedupKey) (bool, error) {
	pipe := s.client.TxPipeline()
	added := pipe.SAdd(ctx, s.key, key.String())
	s.expire(ctx, pipe)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to claim dedup key: %w", err)
	}
	return added.Val() == 1, nil
}

// Release removes a key from the session set
func (s *RedisDedupSession) Release(ctx context.Context, key ledger.DedupKey) error {
	if err := s.client.SRem(ctx, s.key, key.String()).Err(); err != nil {
		return fmt.Errorf("failed to release dedup key: %w", err)
	}
	return nil
}

func (s *RedisDedupSession) expire(ctx context.Context, pipe redis.Pipeliner) {
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
}

var _ ledger.DedupSession = (*RedisDedupSession)(nil)
