package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryFieldConfigCache implements FieldConfigCache using in-process
// storage. Suitable for single-instance deployments and tests.
type InMemoryFieldConfigCache struct {
	configs sync.Map // map[string]*cacheEntry[[]fieldconfig.FieldDefinition]
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{} // Channel to stop the cleanup goroutine
	stopped int32         // Atomic flag to track if cache is stopped

	// Stats for monitoring
	hits   int64
	misses int64
}

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryFieldConfigCacheOption is a functional option for configuring the cache
type InMemoryFieldConfigCacheOption func(*InMemoryFieldConfigCache)

// WithInMemoryTTL sets the default TTL for cached field configs
func WithInMemoryTTL(ttl time.Duration) InMemoryFieldConfigCacheOption {
	return func(c *InMemoryFieldConfigCache) {
		c.ttl = ttl
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryFieldConfigCacheOption {
	return func(c *InMemoryFieldConfigCache) {
		c.logger = logger
	}
}

// NewInMemoryFieldConfigCache creates a new in-memory field config cache
func NewInMemoryFieldConfigCache(opts ...InMemoryFieldConfigCacheOption) *InMemoryFieldConfigCache {
	cache := &InMemoryFieldConfigCache{
		ttl:    defaultFieldConfigTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

func (c *InMemoryFieldConfigCache) cacheKey(tenantID uuid.UUID) string {
	return "field_config:" + tenantID.String()
}

// Get retrieves a tenant's field definitions from cache.
func (c *InMemoryFieldConfigCache) Get(ctx context.Context, tenantID uuid.UUID) ([]fieldconfig.FieldDefinition, error) {
	cacheKey := c.cacheKey(tenantID)

	if value, ok := c.configs.Load(cacheKey); ok {
		entry := value.(*cacheEntry[[]fieldconfig.FieldDefinition])
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("cache hit for field config", zap.String("tenant_id", tenantID.String()))
			return entry.value, nil
		}
		// Expired, remove from cache
		c.configs.Delete(cacheKey)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("cache miss for field config", zap.String("tenant_id", tenantID.String()))
	return nil, nil
}

// Set stores a tenant's field definitions in cache.
func (c *InMemoryFieldConfigCache) Set(ctx context.Context, tenantID uuid.UUID, defs []fieldconfig.FieldDefinition, ttl time.Duration) error {
	if defs == nil {
		return nil
	}

	if ttl == 0 {
		ttl = c.ttl
	}

	entry := &cacheEntry[[]fieldconfig.FieldDefinition]{
		value:     defs,
		expiresAt: time.Now().Add(ttl),
	}

	c.configs.Store(c.cacheKey(tenantID), entry)
	c.logger.Debug("cached field config",
		zap.String("tenant_id", tenantID.String()),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate removes a tenant's field definitions from cache.
func (c *InMemoryFieldConfigCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	c.configs.Delete(c.cacheKey(tenantID))
	c.logger.Debug("invalidated field config cache", zap.String("tenant_id", tenantID.String()))
	return nil
}

// Close releases any resources held by the cache
func (c *InMemoryFieldConfigCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryFieldConfigCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries in the cache
func (c *InMemoryFieldConfigCache) Count() int {
	count := 0
	c.configs.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryFieldConfigCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("panic in cache cleanup", zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired entries
func (c *InMemoryFieldConfigCache) doCleanup() {
	removed := 0

	c.configs.Range(func(key, value any) bool {
		entry := value.(*cacheEntry[[]fieldconfig.FieldDefinition])
		if entry.isExpired() {
			c.configs.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("cleaned up expired field config cache entries", zap.Int("removed", removed))
	}
}

// Ensure InMemoryFieldConfigCache implements FieldConfigCache
var _ FieldConfigCache = (*InMemoryFieldConfigCache)(nil)
