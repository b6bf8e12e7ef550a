package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultFieldConfigTTL = 5 * time.Minute

// FieldConfigCache caches a tenant's full field definition list. A nil slice
// with a nil error means cache miss.
type FieldConfigCache interface {
	Get(ctx context.Context, tenantID uuid.UUID) ([]fieldconfig.FieldDefinition, error)
	Set(ctx context.Context, tenantID uuid.UUID, defs []fieldconfig.FieldDefinition, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
	Close() error
}

// RedisFieldConfigCache implements FieldConfigCache using Redis
type RedisFieldConfigCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisFieldConfigCacheOption is a functional option for configuring the cache
type RedisFieldConfigCacheOption func(*RedisFieldConfigCache)

// WithCacheTTL sets the default TTL for cached field configs
func WithCacheTTL(ttl time.Duration) RedisFieldConfigCacheOption {
	return func(c *RedisFieldConfigCache) {
		c.ttl = ttl
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisFieldConfigCacheOption {
	return func(c *RedisFieldConfigCache) {
		c.logger = logger
	}
}

// NewRedisFieldConfigCache creates a Redis-backed field config cache.
func NewRedisFieldConfigCache(addr, password string, db int, opts ...RedisFieldConfigCacheOption) (*RedisFieldConfigCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisFieldConfigCache{
		client:     client,
		ownsClient: true,
		ttl:        defaultFieldConfigTTL,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisFieldConfigCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisFieldConfigCacheWithClient(client *redis.Client, opts ...RedisFieldConfigCacheOption) *RedisFieldConfigCache {
	cache := &RedisFieldConfigCache{
		client:     client,
		ownsClient: false,
		ttl:        defaultFieldConfigTTL,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *RedisFieldConfigCache) cacheKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("field_config:%s", tenantID)
}

// Get retrieves a tenant's field definitions from cache.
func (c *RedisFieldConfigCache) Get(ctx context.Context, tenantID uuid.UUID) ([]fieldconfig.FieldDefinition, error) {
	cacheKey := c.cacheKey(tenantID)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		c.logger.Debug("cache miss for field config", zap.String("tenant_id", tenantID.String()))
		return nil, nil
	}
	if err != nil {
		c.logger.Error("failed to get field config from cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get field config from cache: %w", err)
	}

	var defs []fieldconfig.FieldDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		c.logger.Error("failed to unmarshal field config",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		// Drop the corrupted entry so the next read repopulates it
		_ = c.client.Del(ctx, cacheKey)
		return nil, fmt.Errorf("failed to unmarshal field config: %w", err)
	}

	c.logger.Debug("cache hit for field config", zap.String("tenant_id", tenantID.String()))
	return defs, nil
}

// Set stores a tenant's field definitions in cache.
func (c *RedisFieldConfigCache) Set(ctx context.Context, tenantID uuid.UUID, defs []fieldconfig.FieldDefinition, ttl time.Duration) error {
	if defs == nil {
		return nil
	}

	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(defs)
	if err != nil {
		return fmt.Errorf("failed to marshal field config: %w", err)
	}

	if err := c.client.Set(ctx, c.cacheKey(tenantID), data, ttl).Err(); err != nil {
		c.logger.Error("failed to set field config in cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to set field config in cache: %w", err)
	}

	c.logger.Debug("cached field config",
		zap.String("tenant_id", tenantID.String()),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate removes a tenant's field definitions from cache.
func (c *RedisFieldConfigCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, c.cacheKey(tenantID)).Err(); err != nil {
		c.logger.Error("failed to invalidate field config cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to invalidate field config cache: %w", err)
	}
	return nil
}

// Close releases any resources held by the cache
func (c *RedisFieldConfigCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// Ensure RedisFieldConfigCache implements FieldConfigCache
var _ FieldConfigCache = (*RedisFieldConfigCache)(nil)
