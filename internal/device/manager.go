package device

import (
	"context"
	"log"
	"sync"

	"homelink/internal/models"
	"homelink/internal/realtime"
)

// Manager owns one controller per watched device and its subscription on the
// sync channel. Opening a device fetches its baseline and subscribes;
// closing it unsubscribes, symmetric with teardown.
type Manager struct {
	api     API
	channel *realtime.Channel
	cache   *Cache // optional

	mu   sync.Mutex
	open map[string]*watched
}

type watched struct {
	ctl *Controller
	sub *realtime.Subscription
}

// NewManager creates a manager. cache may be nil.
func NewManager(api API, channel *realtime.Channel, cache *Cache) *Manager {
	return &Manager{
		api:     api,
		channel: channel,
		cache:   cache,
		open:    make(map[string]*watched),
	}
}

// Open starts watching a device: baseline fetch plus channel subscription.
// Opening an already-open device returns the existing controller.
func (m *Manager) Open(ctx context.Context, id string) (*Controller, error) {
	m.mu.Lock()
	if w, ok := m.open[id]; ok {
		m.mu.Unlock()
		return w.ctl, nil
	}
	m.mu.Unlock()

	ctl := NewController(id, m.api)
	if err := ctl.Load(ctx); err != nil {
		return nil, err
	}

	sub := m.channel.Subscribe(id, realtime.Handlers{
		OnData: func(delta models.DeviceState) {
			ctl.ApplyDelta(delta)
			m.storeSnapshot(ctl)
		},
		OnHeartbeat: func(alive bool) {
			ctl.ApplyHeartbeat(alive)
		},
	})

	m.mu.Lock()
	if w, ok := m.open[id]; ok {
		// Lost the race with a concurrent Open for the same id
		m.mu.Unlock()
		sub.Cancel()
		ctl.Close()
		return w.ctl, nil
	}
	m.open[id] = &watched{ctl: ctl, sub: sub}
	m.mu.Unlock()

	m.storeSnapshot(ctl)
	log.Printf("DEVICE: watching %s", id)
	return ctl, nil
}

// Get returns the controller for an open device
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.open[id]
	if !ok {
		return nil, false
	}
	return w.ctl, true
}

// IDs lists the currently watched device ids
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.open))
	for id := range m.open {
		ids = append(ids, id)
	}
	return ids
}

// Close stops watching a device: cancel the subscription, kill the
// controller.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	w, ok := m.open[id]
	delete(m.open, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	w.sub.Cancel()
	w.ctl.Close()
	log.Printf("DEVICE: stopped watching %s", id)
}

// CloseAll tears down every watched device
func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		m.Close(id)
	}
}

// Refresh re-fetches the full baseline of every watched device. The sync
// channel has no replay, so this is the only backfill for events missed
// while disconnected.
func (m *Manager) Refresh(ctx context.Context) {
	for _, id := range m.IDs() {
		ctl, ok := m.Get(id)
		if !ok {
			continue
		}
		if err := ctl.Load(ctx); err != nil {
			log.Printf("DEVICE: refresh %s failed: %v", id, err)
			continue
		}
		m.storeSnapshot(ctl)
	}
}

// Cached returns the last snapshot persisted for a device that is not
// currently watched, so callers can render something while the baseline fetch
// is pending. Returns false when no cache is configured or nothing is stored.
func (m *Manager) Cached(ctx context.Context, id string) (*models.Device, bool) {
	if m.cache == nil {
		return nil, false
	}
	dev, err := m.cache.Load(ctx, id)
	if err != nil {
		return nil, false
	}
	return dev, true
}

func (m *Manager) storeSnapshot(ctl *Controller) {
	if m.cache == nil {
		return
	}
	dev, ok := ctl.Snapshot()
	if !ok {
		return
	}
	go func() {
		if err := m.cache.Store(context.Background(), dev); err != nil {
			log.Printf("DEVICE: cache store %s failed: %v", dev.ID, err)
		}
	}()
}
