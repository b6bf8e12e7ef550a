package cardstate

import (
	"sync"

	"github.com/bloomdesk/backend/internal/domain/card"
)

// Store holds the card collections for one active view. Three actors
// mutate it: the pipeline (wholesale load), local user edits, and remote
// merges from the reconciliation loop. Every mutation is a pure
// replace-by-id: the stored card pointer is swapped for a modified copy in
// one step, so a reader never observes a partially written card and
// applying the same remote delta twice is a no-op after the first time.
type Store struct {
	mu     sync.RWMutex
	main   []*card.Card
	addOns []*card.Card
	byID   map[string]*card.Card
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{byID: make(map[string]*card.Card)}
}

// ApplyPipelineLoaded replaces both collections with a fresh pipeline
// result, discarding whatever the previous run produced.
func (s *Store) ApplyPipelineLoaded(main, addOns []*card.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.main = append([]*card.Card(nil), main...)
	s.addOns = append([]*card.Card(nil), addOns...)
	s.byID = make(map[string]*card.Card, len(main)+len(addOns))
	for _, c := range s.main {
		s.byID[c.CardID] = c
	}
	for _, c := range s.addOns {
		s.byID[c.CardID] = c
	}
}

// ApplyLocalEdit applies a user edit to one card. The mutation runs on a
// copy which then replaces the stored card. Returns the updated card, or
// false when the card is not in the store.
func (s *Store) ApplyLocalEdit(cardID string, mutate func(*card.Card)) (*card.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[cardID]
	if !ok {
		return nil, false
	}
	updated := *current
	mutate(&updated)
	s.replaceLocked(current, &updated)
	return &updated, true
}

// ApplyRemoteMerge merges one delta from the external store into the
// matching card, field by field: incoming values overwrite local ones,
// fields outside the delta stay untouched. Unknown card IDs are ignored;
// deltas for cards not on the current view are not an error.
func (s *Store) ApplyRemoteMerge(delta card.Delta) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[delta.CardID]
	if !ok {
		return false
	}
	updated := *current
	updated.ApplyState(delta.State)
	s.replaceLocked(current, &updated)
	return true
}

// replaceLocked swaps old for new in whichever collection holds it.
func (s *Store) replaceLocked(old, updated *card.Card) {
	s.byID[updated.CardID] = updated
	for i, c := range s.main {
		if c == old {
			s.main[i] = updated
			return
		}
	}
	for i, c := range s.addOns {
		if c == old {
			s.addOns[i] = updated
			return
		}
	}
}

// Get returns the current card for an ID. The returned card must be
// treated as read-only; edits go through the Apply methods.
func (s *Store) Get(cardID string) (*card.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[cardID]
	return c, ok
}

// Snapshot returns the current main and add-on collections.
func (s *Store) Snapshot() (main, addOns []*card.Card) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*card.Card(nil), s.main...), append([]*card.Card(nil), s.addOns...)
}

// Len returns the total number of cards across both collections.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
