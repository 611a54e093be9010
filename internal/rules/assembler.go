package rules

import (
	"context"
	"errors"
	"log"
	"strings"

	"homelink/internal/composition"
	"homelink/internal/models"
)

var (
	// ErrNameRequired rejects a commit without a scenario/scene name before
	// any network call
	ErrNameRequired = errors.New("rules: name is required")
	// ErrNoFlow rejects commit/load outside an open flow
	ErrNoFlow = composition.ErrNoFlow
)

// API is the slice of the hub client the assembler needs
type API interface {
	CreateScenario(ctx context.Context, req models.CreateScenarioRequest) (string, error)
	UpdateScenario(ctx context.Context, id string, req models.CreateScenarioRequest) error
	GetScenario(ctx context.Context, id string) (*models.Scenario, error)
	CreateScene(ctx context.Context, req models.CreateSceneRequest) (string, error)
	UpdateScene(ctx context.Context, id string, req models.CreateSceneRequest) error
	GetScene(ctx context.Context, id string) (*models.Scene, error)
}

// Metadata is what the summary step contributes beyond the stores
type Metadata struct {
	Name         string
	ExecutedOnce bool
	IsEnabled    bool
}

// Assembler turns the composition session's contents into persist requests
// and owns the commit/discard boundary. Commit and Discard are the only two
// exits of a flow; a failed commit leaves everything in place for a retry.
type Assembler struct {
	api     API
	session *composition.Session
}

// NewAssembler creates an assembler over the shared composition session
func NewAssembler(api API, session *composition.Session) *Assembler {
	return &Assembler{api: api, session: session}
}

// Session exposes the underlying session for the flow steps
func (a *Assembler) Session() *composition.Session {
	return a.session
}

// BeginScenario opens a create-scenario flow
func (a *Assembler) BeginScenario() error {
	return a.session.Begin(composition.KindScenario)
}

// BeginScene opens a create-scene flow
func (a *Assembler) BeginScene() error {
	return a.session.Begin(composition.KindScene)
}

// EditScenario opens an edit flow seeded from the persisted scenario
func (a *Assembler) EditScenario(ctx context.Context, id string) (*models.Scenario, error) {
	if err := a.session.BeginEdit(composition.KindScenario, id); err != nil {
		return nil, err
	}
	scenario, err := a.api.GetScenario(ctx, id)
	if err != nil {
		a.session.End()
		return nil, err
	}
	a.session.Triggers.Replace(scenario.Triggers)
	a.session.Actions.Replace(scenario.Actions)
	return scenario, nil
}

// EditScene opens an edit flow seeded from the persisted scene
func (a *Assembler) EditScene(ctx context.Context, id string) (*models.Scene, error) {
	if err := a.session.BeginEdit(composition.KindScene, id); err != nil {
		return nil, err
	}
	scene, err := a.api.GetScene(ctx, id)
	if err != nil {
		a.session.End()
		return nil, err
	}
	a.session.Actions.Replace(scene.Actions)
	return scene, nil
}

// Commit validates, serializes and persists the flow. Create flows expect
// 201 and return the new id; edit flows expect 204 and return the edited id.
// On success both stores are cleared and the flow ends. On failure the
// stores keep their contents; the caller may retry or discard.
func (a *Assembler) Commit(ctx context.Context, meta Metadata) (string, error) {
	kind, active := a.session.Active()
	if !active {
		return "", ErrNoFlow
	}
	if strings.TrimSpace(meta.Name) == "" {
		return "", ErrNameRequired
	}

	editID := a.session.EditID()
	var (
		id  string
		err error
	)
	switch kind {
	case composition.KindScene:
		req := models.CreateSceneRequest{
			Name:    meta.Name,
			Actions: a.session.Actions.IDs(),
		}
		if editID != "" {
			id, err = editID, a.api.UpdateScene(ctx, editID, req)
		} else {
			id, err = a.api.CreateScene(ctx, req)
		}
	default:
		req := models.CreateScenarioRequest{
			Name:         meta.Name,
			IsEnabled:    meta.IsEnabled,
			ExecutedOnce: meta.ExecutedOnce,
			Triggers:     a.session.Triggers.List(),
			Actions:      a.session.Actions.IDs(),
		}
		if editID != "" {
			id, err = editID, a.api.UpdateScenario(ctx, editID, req)
		} else {
			id, err = a.api.CreateScenario(ctx, req)
		}
	}
	if err != nil {
		log.Printf("RULES: commit %s failed: %v", kind, err)
		return "", err
	}

	a.session.End()
	log.Printf("RULES: committed %s %s", kind, id)
	return id, nil
}

// Discard abandons the flow without persisting anything. This is the cancel
// path's only exit; skipping it would leak stale composition state into the
// next flow.
func (a *Assembler) Discard() {
	a.session.End()
}
