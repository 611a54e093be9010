package composition

import (
	"sync"

	"homelink/internal/models"
)

// ActionStore accumulates candidate actions for the flow under composition.
// Entries are keyed by action id, so adding the same id twice keeps a single
// entry; iteration preserves first-insertion order.
type ActionStore struct {
	mu    sync.Mutex
	byID  map[string]models.Action
	order []string
}

// NewActionStore creates an empty action store
func NewActionStore() *ActionStore {
	return &ActionStore{byID: make(map[string]models.Action)}
}

// Add inserts an action, deduplicating by id. A re-added id overwrites the
// stored description but keeps its original position.
func (s *ActionStore) Add(a models.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.byID[a.ID] = a
}

// Remove deletes an action by id. Removing an absent id is a no-op.
func (s *ActionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Replace seeds the store from persisted data when an existing
// scenario/scene is opened for editing
func (s *ActionStore) Replace(actions []models.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]models.Action, len(actions))
	s.order = s.order[:0]
	for _, a := range actions {
		if _, ok := s.byID[a.ID]; !ok {
			s.order = append(s.order, a.ID)
		}
		s.byID[a.ID] = a
	}
}

// Reset clears the store. Idempotent; called on both commit and discard.
func (s *ActionStore) Reset() {
	s.mu.Lock()
	s.byID = make(map[string]models.Action)
	s.order = nil
	s.mu.Unlock()
}

// List returns the actions in insertion order
func (s *ActionStore) List() []models.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Action, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// IDs returns the action ids in insertion order, the shape the persist
// payload wants
func (s *ActionStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of distinct actions
func (s *ActionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
