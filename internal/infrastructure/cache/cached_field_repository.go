package cache

import (
	"context"
	"time"

	"github.com/bloomdesk/backend/internal/domain/fieldconfig"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CachedFieldRepository decorates a fieldconfig.Repository with a read-through
// cache. Field definitions change rarely and are read on every card render,
// so a short TTL takes the repository off the hot path without a separate
// invalidation channel.
type CachedFieldRepository struct {
	repo   fieldconfig.Repository
	cache  FieldConfigCache
	ttl    time.Duration
	logger *zap.Logger
}

// CachedFieldRepositoryOption is a functional option for configuring the repository
type CachedFieldRepositoryOption func(*CachedFieldRepository)

// WithFieldRepoTTL sets the TTL used when populating the cache
func WithFieldRepoTTL(ttl time.Duration) CachedFieldRepositoryOption {
	return func(r *CachedFieldRepository) {
		r.ttl = ttl
	}
}

// WithFieldRepoLogger sets the logger for the repository
func WithFieldRepoLogger(logger *zap.Logger) CachedFieldRepositoryOption {
	return func(r *CachedFieldRepository) {
		r.logger = logger
	}
}

// NewCachedFieldRepository creates a caching decorator around repo
func NewCachedFieldRepository(repo fieldconfig.Repository, cache FieldConfigCache, opts ...CachedFieldRepositoryOption) *CachedFieldRepository {
	r := &CachedFieldRepository{
		repo:   repo,
		cache:  cache,
		ttl:    defaultFieldConfigTTL,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// FindAllForTenant returns the tenant's field definitions, serving from cache
// when possible. Cache failures degrade to a repository read rather than
// failing the request.
func (r *CachedFieldRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]fieldconfig.FieldDefinition, error) {
	defs, err := r.cache.Get(ctx, tenantID)
	if err != nil {
		r.logger.Warn("field config cache read failed, falling back to repository",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	} else if defs != nil {
		return defs, nil
	}

	defs, err = r.repo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if cacheErr := r.cache.Set(ctx, tenantID, defs, r.ttl); cacheErr != nil {
		r.logger.Warn("failed to populate field config cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(cacheErr))
	}

	return defs, nil
}

// Invalidate drops the cached definitions for a tenant, forcing the next read
// to hit the repository.
func (r *CachedFieldRepository) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return r.cache.Invalidate(ctx, tenantID)
}

// Ensure CachedFieldRepository implements fieldconfig.Repository
var _ fieldconfig.Repository = (*CachedFieldRepository)(nil)
