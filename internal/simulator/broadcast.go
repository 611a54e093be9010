package simulator

import (
	"log"

	"homelink/internal/models"
)

// Broadcaster pushes device updates out on a sync transport
type Broadcaster interface {
	PublishData(deviceID string, delta models.DeviceState) error
	PublishHeartbeat(deviceID string, alive bool) error
}

// MultiBroadcaster fans one update out to every configured transport, so the
// hub can serve MQTT and WebSocket clients at the same time.
type MultiBroadcaster struct {
	targets []Broadcaster
}

// NewMultiBroadcaster bundles the given transports. Nil entries are skipped.
func NewMultiBroadcaster(targets ...Broadcaster) *MultiBroadcaster {
	m := &MultiBroadcaster{}
	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

// PublishData sends a property delta on every transport
func (m *MultiBroadcaster) PublishData(deviceID string, delta models.DeviceState) error {
	for _, t := range m.targets {
		if err := t.PublishData(deviceID, delta); err != nil {
			log.Printf("SIMULATOR: failed to publish data for %s: %v", deviceID, err)
		}
	}
	return nil
}

// PublishHeartbeat sends a liveness report on every transport
func (m *MultiBroadcaster) PublishHeartbeat(deviceID string, alive bool) error {
	for _, t := range m.targets {
		if err := t.PublishHeartbeat(deviceID, alive); err != nil {
			log.Printf("SIMULATOR: failed to publish heartbeat for %s: %v", deviceID, err)
		}
	}
	return nil
}
