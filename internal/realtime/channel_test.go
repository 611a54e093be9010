package realtime

import (
	"sync"
	"testing"
	"time"

	"homelink/internal/models"
)

// fakeTransport is an in-memory Transport. Tests inject events and connect
// notifications and inspect the subscribe/unsubscribe calls it received.
type fakeTransport struct {
	mu sync.Mutex

	events    chan Event
	connected chan struct{}

	subscribes   []string
	unsubscribes []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:    make(chan Event, 16),
		connected: make(chan struct{}, 1),
	}
}

func (f *fakeTransport) Connect() error { return nil }

func (f *fakeTransport) Subscribe(deviceID string) error {
	f.mu.Lock()
	f.subscribes = append(f.subscribes, deviceID)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Unsubscribe(deviceID string) error {
	f.mu.Lock()
	f.unsubscribes = append(f.unsubscribes, deviceID)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Events() <-chan Event       { return f.events }
func (f *fakeTransport) Connected() <-chan struct{} { return f.connected }
func (f *fakeTransport) Close()                     {}

func (f *fakeTransport) subscribeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subscribes...)
}

func (f *fakeTransport) unsubscribeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.unsubscribes...)
}

// collector records deliveries for one subscription
type collector struct {
	mu         sync.Mutex
	deltas     []models.DeviceState
	heartbeats []bool
}

func (r *collector) handlers() Handlers {
	return Handlers{
		OnData: func(delta models.DeviceState) {
			r.mu.Lock()
			r.deltas = append(r.deltas, delta)
			r.mu.Unlock()
		},
		OnHeartbeat: func(alive bool) {
			r.mu.Lock()
			r.heartbeats = append(r.heartbeats, alive)
			r.mu.Unlock()
		},
	}
}

func (r *collector) deltaCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deltas)
}

func (r *collector) heartbeatCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.heartbeats)
}

// waitFor polls until cond holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestChannelDispatchesToSubscribedDevice(t *testing.T) {
	tr := newFakeTransport()
	ch := NewChannel(tr)
	if err := ch.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer ch.Close()

	lamp := &collector{}
	other := &collector{}
	ch.Subscribe("lamp1", lamp.handlers())
	ch.Subscribe("thermo1", other.handlers())

	tr.events <- Event{DeviceID: "lamp1", Kind: DataEvent, Delta: models.DeviceState{"power": true}}
	tr.events <- Event{DeviceID: "lamp1", Kind: HeartbeatEvent, Alive: false}

	waitFor(t, func() bool { return lamp.deltaCount() == 1 && lamp.heartbeatCount() == 1 })

	lamp.mu.Lock()
	delta := lamp.deltas[0]
	alive := lamp.heartbeats[0]
	lamp.mu.Unlock()
	if delta["power"] != true {
		t.Errorf("delta = %v", delta)
	}
	if alive {
		t.Errorf("heartbeat alive = true, want false")
	}
	if other.deltaCount() != 0 || other.heartbeatCount() != 0 {
		t.Errorf("events leaked to a different device's subscription")
	}
}

func TestChannelDropsEventsForUnsubscribedDevice(t *testing.T) {
	tr := newFakeTransport()
	ch := NewChannel(tr)
	ch.Start()
	defer ch.Close()

	rec := &collector{}
	ch.Subscribe("lamp1", rec.handlers())

	tr.events <- Event{DeviceID: "ghost", Kind: DataEvent, Delta: models.DeviceState{"x": 1}}
	tr.events <- Event{DeviceID: "lamp1", Kind: DataEvent, Delta: models.DeviceState{"power": true}}

	waitFor(t, func() bool { return rec.deltaCount() == 1 })
	// The ghost event was dispatched before the lamp1 one; it went nowhere
	if rec.deltaCount() != 1 {
		t.Errorf("got %d deltas", rec.deltaCount())
	}
}

func TestChannelDoubleSubscribeDeliversTwice(t *testing.T) {
	tr := newFakeTransport()
	ch := NewChannel(tr)
	ch.Start()
	defer ch.Close()

	first := &collector{}
	second := &collector{}
	ch.Subscribe("lamp1", first.handlers())
	ch.Subscribe("lamp1", second.handlers())

	// The transport-level subscription is issued only once
	if got := tr.subscribeCalls(); len(got) != 1 {
		t.Fatalf("transport subscribes = %v, want one", got)
	}

	tr.events <- Event{DeviceID: "lamp1", Kind: DataEvent, Delta: models.DeviceState{"power": true}}
	waitFor(t, func() bool { return first.deltaCount() == 1 && second.deltaCount() == 1 })
}

func TestChannelCancelStopsDelivery(t *testing.T) {
	tr := newFakeTransport()
	ch := NewChannel(tr)
	ch.Start()
	defer ch.Close()

	kept := &collector{}
	dropped := &collector{}
	keptSub := ch.Subscribe("lamp1", kept.handlers())
	droppedSub := ch.Subscribe("lamp1", dropped.handlers())
	_ = keptSub

	droppedSub.Cancel()

	// One registration remains, so the transport subscription stays up
	if got := tr.unsubscribeCalls(); len(got) != 0 {
		t.Fatalf("unsubscribed transport while a consumer remains: %v", got)
	}

	tr.events <- Event{DeviceID: "lamp1", Kind: DataEvent, Delta: models.DeviceState{"power": true}}
	waitFor(t, func() bool { return kept.deltaCount() == 1 })
	if dropped.deltaCount() != 0 {
		t.Errorf("cancelled subscription still received events")
	}

	// Last Cancel tears the transport subscription down
	keptSub.Cancel()
	if got := tr.unsubscribeCalls(); len(got) != 1 || got[0] != "lamp1" {
		t.Errorf("transport unsubscribes = %v", got)
	}

	// Cancel is safe to repeat
	droppedSub.Cancel()
	if got := tr.unsubscribeCalls(); len(got) != 1 {
		t.Errorf("repeated Cancel issued extra unsubscribes: %v", got)
	}
}

func TestChannelResubscribesOnReconnect(t *testing.T) {
	tr := newFakeTransport()
	ch := NewChannel(tr)
	ch.Start()
	defer ch.Close()

	rec := &collector{}
	ch.Subscribe("lamp1", rec.handlers())
	ch.Subscribe("thermo1", rec.handlers())

	before := len(tr.subscribeCalls())

	// Simulate the transport reconnecting
	tr.connected <- struct{}{}

	waitFor(t, func() bool { return len(tr.subscribeCalls()) == before+2 })

	seen := map[string]bool{}
	for _, id := range tr.subscribeCalls()[before:] {
		seen[id] = true
	}
	if !seen["lamp1"] || !seen["thermo1"] {
		t.Errorf("resubscribe missed a device: %v", tr.subscribeCalls()[before:])
	}
}
