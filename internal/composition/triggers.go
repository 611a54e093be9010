package composition

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"homelink/internal/models"
)

var (
	// ErrInvalidTimeRange rejects time triggers whose start is not strictly
	// before their end
	ErrInvalidTimeRange = errors.New("composition: start time must be before end time")
	// ErrIndexOutOfRange rejects removal of a trigger position that does not
	// exist
	ErrIndexOutOfRange = errors.New("composition: trigger index out of range")
)

// timeLayouts accepted for trigger time windows
var timeLayouts = []string{"15:04:05", "15:04"}

// TriggerStore accumulates candidate triggers for the flow under
// composition. The collection is ordered; removal is by positional index, so
// callers must take indexes from the same ordering List returns.
type TriggerStore struct {
	mu       sync.Mutex
	triggers []models.Trigger
}

// NewTriggerStore creates an empty trigger store
func NewTriggerStore() *TriggerStore {
	return &TriggerStore{}
}

// Add appends a trigger. Time triggers are validated here, at creation, and
// never re-checked later.
func (s *TriggerStore) Add(t models.Trigger) error {
	if t.Type == "time" {
		if err := validateTimeWindow(t.StartTime, t.EndTime); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.triggers = append(s.triggers, t)
	s.mu.Unlock()
	return nil
}

// RemoveAt removes the trigger at a positional index
func (s *TriggerStore) RemoveAt(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.triggers) {
		return ErrIndexOutOfRange
	}
	s.triggers = append(s.triggers[:i], s.triggers[i+1:]...)
	return nil
}

// Replace seeds the store from persisted data when an existing scenario is
// opened for editing
func (s *TriggerStore) Replace(triggers []models.Trigger) {
	s.mu.Lock()
	s.triggers = append([]models.Trigger(nil), triggers...)
	s.mu.Unlock()
}

// Reset clears the store. Idempotent; called on both commit and discard.
func (s *TriggerStore) Reset() {
	s.mu.Lock()
	s.triggers = nil
	s.mu.Unlock()
}

// List returns the triggers in order
func (s *TriggerStore) List() []models.Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Trigger(nil), s.triggers...)
}

// Len returns the number of accumulated triggers
func (s *TriggerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

func validateTimeWindow(start, end string) error {
	startT, err := parseClock(start)
	if err != nil {
		return fmt.Errorf("composition: bad start time %q: %w", start, err)
	}
	endT, err := parseClock(end)
	if err != nil {
		return fmt.Errorf("composition: bad end time %q: %w", end, err)
	}
	if !startT.Before(endT) {
		return ErrInvalidTimeRange
	}
	return nil
}

func parseClock(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
