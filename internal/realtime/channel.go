package realtime

import (
	"log"
	"sync"

	"homelink/internal/models"
)

// EventKind discriminates inbound channel events
type EventKind int

const (
	// DataEvent carries a partial property update for one device
	DataEvent EventKind = iota
	// HeartbeatEvent carries an authoritative liveness flag for one device
	HeartbeatEvent
)

// Event is one inbound push from the hub
type Event struct {
	DeviceID string
	Kind     EventKind
	Delta    models.DeviceState // DataEvent
	Alive    bool               // HeartbeatEvent
}

// Handlers receives events for one subscription. Either callback may be nil.
type Handlers struct {
	OnData      func(delta models.DeviceState)
	OnHeartbeat func(alive bool)
}

// Transport is a concrete connection to the hub's push channel
type Transport interface {
	// Connect establishes the connection. Reconnection afterwards is the
	// transport's own business; each (re)connect is announced on Connected.
	Connect() error
	// Subscribe asks the hub to start pushing events for the device
	Subscribe(deviceID string) error
	// Unsubscribe asks the hub to stop pushing events for the device
	Unsubscribe(deviceID string) error
	// Events delivers inbound events
	Events() <-chan Event
	// Connected signals every successful (re)connect
	Connected() <-chan struct{}
	Close()
}

// Channel multiplexes one transport connection across any number of
// per-device subscriptions. Subscription is additive per device id: every
// Subscribe registers one delivery and must be paired with one Cancel.
// Subscribing twice for the same id delivers events twice.
type Channel struct {
	tr Transport

	mu   sync.Mutex
	subs map[string][]*Subscription

	done chan struct{}
	wg   sync.WaitGroup
}

// Subscription is one registered interest in a device's events
type Subscription struct {
	deviceID string
	h        Handlers
	ch       *Channel
	once     sync.Once
}

// NewChannel creates a channel over the given transport
func NewChannel(tr Transport) *Channel {
	return &Channel{
		tr:   tr,
		subs: make(map[string][]*Subscription),
		done: make(chan struct{}),
	}
}

// Start connects the transport and begins dispatching events
func (c *Channel) Start() error {
	if err := c.tr.Connect(); err != nil {
		return err
	}
	c.wg.Add(1)
	go c.loop()
	return nil
}

// Close stops dispatching and tears down the transport
func (c *Channel) Close() {
	close(c.done)
	c.tr.Close()
	c.wg.Wait()
}

// Subscribe registers interest in a device. The transport-level subscription
// is issued on the first registration for an id and kept until the last
// Cancel, so one consumer's teardown cannot silence another's events.
func (c *Channel) Subscribe(deviceID string, h Handlers) *Subscription {
	sub := &Subscription{deviceID: deviceID, h: h, ch: c}

	c.mu.Lock()
	first := len(c.subs[deviceID]) == 0
	c.subs[deviceID] = append(c.subs[deviceID], sub)
	c.mu.Unlock()

	if first {
		if err := c.tr.Subscribe(deviceID); err != nil {
			// Kept registered: the resubscribe on the next connect
			// notification will retry.
			log.Printf("REALTIME: subscribe %s failed: %v", deviceID, err)
		}
	}
	return sub
}

// Cancel deregisters this subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.ch.unsubscribe(s)
	})
}

func (c *Channel) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	list := c.subs[sub.deviceID]
	for i, candidate := range list {
		if candidate == sub {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.subs, sub.deviceID)
	} else {
		c.subs[sub.deviceID] = list
	}
	last := len(list) == 0
	c.mu.Unlock()

	if last {
		if err := c.tr.Unsubscribe(sub.deviceID); err != nil {
			log.Printf("REALTIME: unsubscribe %s failed: %v", sub.deviceID, err)
		}
	}
}

func (c *Channel) loop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.tr.Events():
			if !ok {
				return
			}
			c.dispatch(ev)
		case <-c.tr.Connected():
			c.resubscribeAll()
		}
	}
}

// dispatch fans an event out to every subscription for its device id.
// Events for ids nobody subscribed to are dropped.
func (c *Channel) dispatch(ev Event) {
	c.mu.Lock()
	list := append([]*Subscription(nil), c.subs[ev.DeviceID]...)
	c.mu.Unlock()

	for _, sub := range list {
		switch ev.Kind {
		case DataEvent:
			if sub.h.OnData != nil {
				sub.h.OnData(ev.Delta)
			}
		case HeartbeatEvent:
			if sub.h.OnHeartbeat != nil {
				sub.h.OnHeartbeat(ev.Alive)
			}
		}
	}
}

// resubscribeAll replays transport subscriptions for every registered device
// id. The hub keeps no subscription state across connections, so this runs on
// every connect notification, not just the first.
func (c *Channel) resubscribeAll() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	log.Printf("REALTIME: connected, resubscribing %d devices", len(ids))
	for _, id := range ids {
		if err := c.tr.Subscribe(id); err != nil {
			log.Printf("REALTIME: resubscribe %s failed: %v", id, err)
		}
	}
}
