package cardstate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/bloomdesk/backend/internal/domain/shared"
)

// defaultDebounceWindow is how long notes edits coalesce before the final
// value is written to the store.
const defaultDebounceWindow = time.Second

// persistTimeout bounds background writes fired from debounce timers.
const persistTimeout = 10 * time.Second

// EditResult reports the outcome of a local edit: the updated card and
// whether the write to the external store went through. A failed write is a
// transient condition only; the optimistic local value is kept and the
// reconciliation loop converges it later.
type EditResult struct {
	Card      *card.Card
	Persisted bool
}

// Manager owns one Store per tenant and routes the two local mutation
// sources through them: immediate status transitions and debounced notes
// edits. Remote deltas arrive through MergeRemote from the reconciliation
// loop.
type Manager struct {
	states         card.StateRepository
	logger         *zap.Logger
	debounceWindow time.Duration

	mu     sync.Mutex
	stores map[uuid.UUID]*Store
	timers map[string]*time.Timer
}

// NewManager creates a Manager backed by the given per-card store.
func NewManager(states card.StateRepository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		states:         states,
		logger:         logger,
		debounceWindow: defaultDebounceWindow,
		stores:         make(map[uuid.UUID]*Store),
		timers:         make(map[string]*time.Timer),
	}
}

// SetDebounceWindow overrides the notes debounce window.
func (m *Manager) SetDebounceWindow(d time.Duration) {
	if d > 0 {
		m.debounceWindow = d
	}
}

// StoreFor returns the tenant's store, creating it on first use.
func (m *Manager) StoreFor(tenantID uuid.UUID) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.stores[tenantID]
	if !ok {
		store = NewStore()
		m.stores[tenantID] = store
	}
	return store
}

// Tenants returns the tenants with an active store.
func (m *Manager) Tenants() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	tenants := make([]uuid.UUID, 0, len(m.stores))
	for id := range m.stores {
		tenants = append(tenants, id)
	}
	return tenants
}

// LoadPipelineResult replaces the tenant's collections with a fresh
// pipeline run.
func (m *Manager) LoadPipelineResult(tenantID uuid.UUID, main, addOns []*card.Card) {
	m.StoreFor(tenantID).ApplyPipelineLoaded(main, addOns)
}

// ClickStatus applies a status button click and persists the resulting
// state immediately. The returned EditResult reports a failed write
// without rolling back the local change; writes are not retried.
func (m *Manager) ClickStatus(ctx context.Context, tenantID uuid.UUID, cardID string, clicked card.CardStatus, actor string) (*EditResult, error) {
	if !clicked.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown card status: "+string(clicked))
	}

	updated, ok := m.StoreFor(tenantID).ApplyLocalEdit(cardID, func(c *card.Card) {
		c.ClickStatus(clicked, actor)
	})
	if !ok {
		return nil, shared.ErrNotFound
	}

	persisted := m.persist(ctx, tenantID, updated)
	return &EditResult{Card: updated, Persisted: persisted}, nil
}

// EditNotes applies a notes edit locally and (re)starts the card's
// debounce timer. Each keystroke restarts the single timer; only the value
// present when the timer finally fires is written.
func (m *Manager) EditNotes(tenantID uuid.UUID, cardID, notes string) (*card.Card, error) {
	updated, ok := m.StoreFor(tenantID).ApplyLocalEdit(cardID, func(c *card.Card) {
		c.Notes = notes
	})
	if !ok {
		return nil, shared.ErrNotFound
	}

	key := tenantID.String() + "/" + cardID
	m.mu.Lock()
	if timer, ok := m.timers[key]; ok {
		timer.Stop()
	}
	m.timers[key] = time.AfterFunc(m.debounceWindow, func() {
		m.mu.Lock()
		delete(m.timers, key)
		m.mu.Unlock()
		m.flushNotes(tenantID, cardID)
	})
	m.mu.Unlock()

	return updated, nil
}

// flushNotes writes the card's current state after the debounce window.
func (m *Manager) flushNotes(tenantID uuid.UUID, cardID string) {
	current, ok := m.StoreFor(tenantID).Get(cardID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	m.persist(ctx, tenantID, current)
}

// MergeRemote applies deltas read back from the external store. Merges are
// idempotent; duplicate or out-of-order deltas are harmless.
func (m *Manager) MergeRemote(tenantID uuid.UUID, deltas []card.Delta) {
	store := m.StoreFor(tenantID)
	for _, delta := range deltas {
		store.ApplyRemoteMerge(delta)
	}
}

// persist upserts one card's mutable state. Failures are logged and
// reported as a transient indicator only.
func (m *Manager) persist(ctx context.Context, tenantID uuid.UUID, c *card.Card) bool {
	if _, err := m.states.Upsert(ctx, tenantID, c.CardID, c.State()); err != nil {
		m.logger.Error("Persisting card state failed, keeping optimistic local value",
			zap.String("tenant_id", tenantID.String()),
			zap.String("card_id", c.CardID),
			zap.Error(err),
		)
		return false
	}
	return true
}
