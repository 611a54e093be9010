package composition

import (
	"errors"
	"sync"
)

var (
	// ErrFlowActive rejects starting a composition flow while another is
	// still open; the first flow's state would be corrupted otherwise
	ErrFlowActive = errors.New("composition: another flow is already active")
	// ErrNoFlow rejects flow operations when no flow has been begun
	ErrNoFlow = errors.New("composition: no active flow")
)

// Kind says what the current flow is building
type Kind string

const (
	// KindScenario builds a triggered automation rule
	KindScenario Kind = "scenario"
	// KindScene builds a trigger-less action bundle
	KindScene Kind = "scene"
)

// Session is the process-wide composition state: the two stores shared by
// every step of one "build a scenario/scene" flow. Steps come and go during
// navigation; the session does not, so partial progress survives. At most
// one flow is open at a time.
type Session struct {
	Triggers *TriggerStore
	Actions  *ActionStore

	mu     sync.Mutex
	active bool
	kind   Kind
	editID string
}

// NewSession creates an idle session with empty stores
func NewSession() *Session {
	return &Session{
		Triggers: NewTriggerStore(),
		Actions:  NewActionStore(),
	}
}

// Begin opens a flow of the given kind. Fails with ErrFlowActive if a flow
// is already open.
func (s *Session) Begin(kind Kind) error {
	return s.begin(kind, "")
}

// BeginEdit opens a flow editing an existing scenario/scene
func (s *Session) BeginEdit(kind Kind, id string) error {
	return s.begin(kind, id)
}

func (s *Session) begin(kind Kind, editID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrFlowActive
	}
	s.active = true
	s.kind = kind
	s.editID = editID
	return nil
}

// End closes the flow and clears both stores. Idempotent: ending an idle
// session leaves it idle with empty stores.
func (s *Session) End() {
	s.mu.Lock()
	s.active = false
	s.kind = ""
	s.editID = ""
	s.mu.Unlock()
	s.Triggers.Reset()
	s.Actions.Reset()
}

// Active reports whether a flow is open, and its kind
func (s *Session) Active() (Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind, s.active
}

// EditID returns the id of the entity being edited, empty for a create flow
func (s *Session) EditID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editID
}
