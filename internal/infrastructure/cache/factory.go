package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DedupSessionFactory hands out one dedup session per import
type DedupSessionFactory struct {
	backend               string
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	keyPrefix             string
	client                *redis.Client
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DedupSessionFactoryOption is a functional option for configuring the factory
type DedupSessionFactoryOption func(*DedupSessionFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DedupSessionFactoryOption {
	return func(f *DedupSessionFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory sessions when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) DedupSessionFactoryOption {
	return func(f *DedupSessionFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithRedisClient shares an existing client instead of dialing a new one
func WithRedisClient(client *redis.Client) DedupSessionFactoryOption {
	return func(f *DedupSessionFactory) {
		f.client = client
	}
}

// WithKeyPrefix overrides the Redis key namespace
func WithKeyPrefix(prefix string) DedupSessionFactoryOption {
	return func(f *DedupSessionFactory) {
		f.keyPrefix = prefix
	}
}

// NewDedupSessionFactory creates a new factory from the import and redis config sections
func NewDedupSessionFactory(importCfg config.ImportConfig, redisCfg config.RedisConfig, opts ...DedupSessionFactoryOption) *DedupSessionFactory {
	f := &DedupSessionFactory{
		backend:               importCfg.DedupBackend,
		redisConfig:           redisCfg,
		ttl:                   importCfg.DedupTTL,
		keyPrefix:             defaultDedupKeyPrefix,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Connect dials Redis when the redis backend is configured.
// On failure it degrades to in-memory sessions if fallback is allowed.
func (f *DedupSessionFactory) Connect() error {
	if f.backend != "redis" || f.client != nil {
		return nil
	}

	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.client = client
		f.logger.Info("using Redis dedup sessions")
		return nil
	}

	if !f.allowInMemoryFallback {
		return fmt.Errorf("Redis required for dedup sessions but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory dedup sessions. "+
		"Concurrent imports on different instances may create duplicates.",
		zap.Error(err),
	)
	f.backend = "memory"
	return nil
}

// NewSession returns a fresh session for one import
func (f *DedupSessionFactory) NewSession() ledger.DedupSession {
	if f.backend == "redis" && f.client != nil {
		return NewRedisDedupSession(f.client, f.keyPrefix, uuid.New().String(), f.ttl)
	}
	return NewMemoryDedupSession()
}

// Backend reports which store sessions are created on
func (f *DedupSessionFactory) Backend() string {
	if f.backend == "redis" && f.client != nil {
		return "redis"
	}
	return "memory"
}

// Close releases the Redis client if one was opened
func (f *DedupSessionFactory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
