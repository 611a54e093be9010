package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"homelink/internal/db"
	"homelink/internal/models"
)

// TypeDeviceCommand is the task type for device control commands
const TypeDeviceCommand = "device_command"

type deviceCommandPayload struct {
	DeviceID string             `json:"deviceId"`
	Command  models.DeviceState `json:"command"`
}

// Queue enqueues hub-side background work
type Queue struct {
	client *asynq.Client
}

// NewQueue creates an Asynq client against the given Redis address
func NewQueue(redisAddr string) *Queue {
	return &Queue{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// EnqueueCommand queues a device command for asynchronous application
func (q *Queue) EnqueueCommand(deviceID string, command models.DeviceState) error {
	payload, err := json.Marshal(deviceCommandPayload{DeviceID: deviceID, Command: command})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeDeviceCommand, payload)
	info, err := q.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(10*time.Second))
	if err != nil {
		return err
	}
	log.Printf("SIMULATOR: enqueued %s for device %s (task %s)", TypeDeviceCommand, deviceID, info.ID)
	return nil
}

// Close releases the Asynq client
func (q *Queue) Close() {
	q.client.Close()
}

// Worker applies queued device commands: merge into the stored property map,
// then push the delta out on the sync channel.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// NewWorker builds the Asynq worker over the device store and broadcaster
func NewWorker(redisAddr string, database *db.DB, broadcast Broadcaster) *Worker {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeviceCommand, func(ctx context.Context, t *asynq.Task) error {
		return processDeviceCommand(ctx, t, database, broadcast)
	})
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{Concurrency: 10})
	return &Worker{srv: srv, mux: mux}
}

// Start runs the worker loop in the background
func (w *Worker) Start() {
	go func() {
		log.Printf("SIMULATOR: workers started, waiting for tasks...")
		if err := w.srv.Run(w.mux); err != nil {
			log.Fatalf("SIMULATOR: failed to start workers: %v", err)
		}
	}()
}

// Stop shuts the worker loop down
func (w *Worker) Stop() {
	w.srv.Stop()
	log.Printf("SIMULATOR: workers stopped")
}

func processDeviceCommand(ctx context.Context, t *asynq.Task, database *db.DB, broadcast Broadcaster) error {
	var payload deviceCommandPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("simulator: bad %s payload: %w", TypeDeviceCommand, err)
	}

	dev, err := database.GetDeviceByID(ctx, payload.DeviceID)
	if err != nil {
		return fmt.Errorf("simulator: device %s: %w", payload.DeviceID, err)
	}

	for key, value := range payload.Command {
		dev.Properties[key] = value
	}
	if err := database.UpdateDeviceProperties(ctx, dev.ID, dev.Properties); err != nil {
		return fmt.Errorf("simulator: store device %s: %w", dev.ID, err)
	}

	log.Printf("SIMULATOR: applied command to device %s: %v", dev.ID, payload.Command)
	broadcast.PublishData(dev.ID, payload.Command)
	return nil
}
