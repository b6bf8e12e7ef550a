package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bloomdesk/backend/internal/application/cardstate"
	"github.com/bloomdesk/backend/internal/domain/card"
)

// ReconcileSchedulerConfig holds configuration for the card state
// reconciliation loop.
type ReconcileSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// PollInterval is how often each tenant's store is polled for deltas
	PollInterval time.Duration
	// PollTimeout is the maximum time one reconciliation pass may take
	PollTimeout time.Duration
}

// DefaultReconcileSchedulerConfig returns default configuration
func DefaultReconcileSchedulerConfig() ReconcileSchedulerConfig {
	return ReconcileSchedulerConfig{
		Enabled:      true,
		PollInterval: 5 * time.Second,
		PollTimeout:  30 * time.Second,
	}
}

// Validate validates the configuration
func (c *ReconcileSchedulerConfig) Validate() error {
	if c.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.PollTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ReconcileScheduler polls the external card state store on a fixed interval
// and feeds observed deltas back into each tenant's in-memory store. Every
// tenant carries its own cursor, advanced to the newest updated_at seen so a
// delta is merged at most once. Merges are idempotent, so a missed cursor
// advance only costs a redundant merge.
type ReconcileScheduler struct {
	config  ReconcileSchedulerConfig
	states  card.StateRepository
	manager *cardstate.Manager
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	cursorMu sync.Mutex
	cursors  map[uuid.UUID]time.Time
}

// NewReconcileScheduler creates a new reconciliation scheduler
func NewReconcileScheduler(config ReconcileSchedulerConfig, states card.StateRepository, manager *cardstate.Manager, logger *zap.Logger) (*ReconcileScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReconcileScheduler{
		config:  config,
		states:  states,
		manager: manager,
		logger:  logger,
		cursors: make(map[uuid.UUID]time.Time),
	}, nil
}

// Start starts the reconciliation loop
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Reconcile scheduler started",
		zap.Duration("poll_interval", s.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for the loop to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconcile scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

// run drives the fixed-interval reconciliation loop
func (s *ReconcileScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			passCtx, cancel := context.WithTimeout(ctx, s.config.PollTimeout)
			s.ReconcileOnce(passCtx)
			cancel()
		}
	}
}

// ReconcileOnce runs one reconciliation pass over every tenant with an
// active store. A tenant's failure is logged and does not affect the others.
func (s *ReconcileScheduler) ReconcileOnce(ctx context.Context) {
	for _, tenantID := range s.manager.Tenants() {
		if err := s.reconcileTenant(ctx, tenantID); err != nil {
			s.logger.Warn("Reconciliation pass failed for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}
}

// reconcileTenant merges deltas newer than the tenant's cursor and advances
// the cursor to the newest update seen.
func (s *ReconcileScheduler) reconcileTenant(ctx context.Context, tenantID uuid.UUID) error {
	cursor := s.getCursor(tenantID)

	deltas, err := s.states.ListChangedSince(ctx, tenantID, cursor)
	if err != nil {
		return err
	}
	if len(deltas) == 0 {
		return nil
	}

	s.manager.MergeRemote(tenantID, deltas)

	maxUpdated := cursor
	for _, delta := range deltas {
		if delta.UpdatedAt.After(maxUpdated) {
			maxUpdated = delta.UpdatedAt
		}
	}
	s.setCursor(tenantID, maxUpdated)

	s.logger.Debug("Merged remote card state deltas",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("delta_count", len(deltas)),
		zap.Time("cursor", maxUpdated),
	)
	return nil
}

func (s *ReconcileScheduler) getCursor(tenantID uuid.UUID) time.Time {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	return s.cursors[tenantID]
}

func (s *ReconcileScheduler) setCursor(tenantID uuid.UUID, cursor time.Time) {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()
	s.cursors[tenantID] = cursor
}
