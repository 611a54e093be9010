package refresh

import (
	"context"
	"log"
	"time"

	"homelink/internal/device"

	"github.com/robfig/cron/v3"
)

// refreshTimeout bounds one full refresh pass
const refreshTimeout = 30 * time.Second

// Refresher periodically re-fetches the full state of every watched device.
// The push channel has no buffering or replay, so a consumer that was
// disconnected has no backfill except the next full fetch; this supplies it.
type Refresher struct {
	cron    *cron.Cron
	manager *device.Manager
}

// NewRefresher creates a refresher over the device manager
func NewRefresher(manager *device.Manager) *Refresher {
	return &Refresher{
		cron:    cron.New(),
		manager: manager,
	}
}

// Start schedules the refresh job with a cron spec such as "@every 5m" and
// starts the scheduler
func (r *Refresher) Start(spec string) error {
	_, err := r.cron.AddFunc(spec, r.run)
	if err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("REFRESH: scheduled full refresh (%s)", spec)
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Println("REFRESH: stopped")
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	r.manager.Refresh(ctx)
}
