package simulator

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"homelink/internal/db"
)

// Heartbeat periodically publishes every device's liveness flag on the sync
// channel. Clients replace their cached flag wholesale with each report.
type Heartbeat struct {
	cron      *cron.Cron
	db        *db.DB
	broadcast Broadcaster
}

// NewHeartbeat creates the publisher, not yet running
func NewHeartbeat(database *db.DB, broadcast Broadcaster) *Heartbeat {
	return &Heartbeat{cron: cron.New(), db: database, broadcast: broadcast}
}

// Start schedules the publisher with the given cron spec, e.g. "@every 30s"
func (h *Heartbeat) Start(spec string) error {
	if _, err := h.cron.AddFunc(spec, h.publishAll); err != nil {
		return err
	}
	h.cron.Start()
	log.Printf("SIMULATOR: heartbeat publisher started (%s)", spec)
	return nil
}

// Stop waits for a running publish to finish, then stops
func (h *Heartbeat) Stop() {
	ctx := h.cron.Stop()
	<-ctx.Done()
	log.Println("SIMULATOR: heartbeat publisher stopped")
}

func (h *Heartbeat) publishAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	devices, err := h.db.ListDeviceIDs(ctx)
	if err != nil {
		log.Printf("SIMULATOR: failed to list devices for heartbeat: %v", err)
		return
	}
	for id, alive := range devices {
		h.broadcast.PublishHeartbeat(id, alive)
	}
}
