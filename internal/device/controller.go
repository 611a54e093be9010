package device

import (
	"context"
	"errors"
	"sync"

	"homelink/internal/models"
)

var (
	// ErrOffline is returned when a command targets a device whose last
	// heartbeat reported it unreachable. No network request is made.
	ErrOffline = errors.New("device: device offline")
	// ErrClosed is returned for operations on a closed controller
	ErrClosed = errors.New("device: controller closed")
	// ErrNotLoaded is returned for commands issued before Load established a
	// baseline
	ErrNotLoaded = errors.New("device: state not loaded")
)

// API is the slice of the hub client a controller needs
type API interface {
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	ControlDevice(ctx context.Context, id string, command models.DeviceState) error
}

// Controller owns the best-known state of one device: a baseline fetched
// from the hub plus every delta and heartbeat merged in arrival order.
type Controller struct {
	id  string
	api API

	mu     sync.RWMutex
	dev    *models.Device
	closed bool
}

// NewController creates a controller for a device id. Call Load before
// issuing commands.
func NewController(id string, api API) *Controller {
	return &Controller{id: id, api: api}
}

// ID returns the device id
func (c *Controller) ID() string { return c.id }

// Load fetches the device's full current state and installs it as the
// baseline property map. Commands are rejected until Load has succeeded once.
func (c *Controller) Load(ctx context.Context) error {
	dev, err := c.api.GetDevice(ctx, c.id)
	if err != nil {
		return err
	}
	if dev.Properties == nil {
		dev.Properties = models.DeviceState{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		// Screen torn down while the fetch was in flight; drop the result
		return ErrClosed
	}
	c.dev = dev
	return nil
}

// ApplyDelta shallow-merges a pushed partial property update into the local
// map. Keys absent from the delta keep their prior value. Command acks merge
// into the same map; for the same key, whichever reaches this point last
// wins (there is no ordering between acks and pushes).
func (c *Controller) ApplyDelta(delta models.DeviceState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.dev == nil {
		return
	}
	for k, v := range delta {
		c.dev.Properties[k] = v
	}
}

// ApplyHeartbeat replaces the liveness flag wholesale. Properties are not
// touched.
func (c *Controller) ApplyHeartbeat(alive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.dev == nil {
		return
	}
	c.dev.IsActive = alive
}

// ControlProperty computes the intended next value for a property (booleans
// flip, anything else passes through), submits the command, and applies the
// value locally only after the hub acknowledges it. Offline devices are
// rejected without a network round-trip.
func (c *Controller) ControlProperty(ctx context.Context, key string, current interface{}) (interface{}, error) {
	c.mu.RLock()
	switch {
	case c.closed:
		c.mu.RUnlock()
		return nil, ErrClosed
	case c.dev == nil:
		c.mu.RUnlock()
		return nil, ErrNotLoaded
	case !c.dev.IsActive:
		c.mu.RUnlock()
		return nil, ErrOffline
	}
	c.mu.RUnlock()

	next := current
	if b, ok := current.(bool); ok {
		next = !b
	}

	if err := c.api.ControlDevice(ctx, c.id, models.DeviceState{key: next}); err != nil {
		return nil, err
	}

	// Confirmed by the hub; a late ack after Close is dropped silently
	c.mu.Lock()
	if !c.closed && c.dev != nil {
		c.dev.Properties[key] = next
	}
	c.mu.Unlock()
	return next, nil
}

// Snapshot returns a copy of the current best-known state. The second return
// is false before Load completes.
func (c *Controller) Snapshot() (models.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dev == nil {
		return models.Device{}, false
	}
	out := *c.dev
	out.Properties = make(models.DeviceState, len(c.dev.Properties))
	for k, v := range c.dev.Properties {
		out.Properties[k] = v
	}
	return out, true
}

// Close marks the controller dead. Later acks, deltas and heartbeats become
// no-ops instead of mutating state for a device nobody is showing.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
