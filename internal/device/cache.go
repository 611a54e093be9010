package device

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homelink/internal/models"

	"github.com/redis/go-redis/v9"
)

// snapshotTTL matches how long a cached snapshot stays useful without a
// refresh
const snapshotTTL = time.Hour

// Cache keeps last-known device snapshots in Redis under device:{id} so a
// restarted controller can show something before its first fetch completes.
type Cache struct {
	client *redis.Client
}

// NewCache creates a snapshot cache backed by the Redis at addr
func NewCache(addr string) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Store writes a device snapshot
func (c *Cache) Store(ctx context.Context, dev models.Device) error {
	raw, err := json.Marshal(dev)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fmt.Sprintf("device:%s", dev.ID), raw, snapshotTTL).Err()
}

// Load reads a cached snapshot. Returns redis.Nil via the wrapped error when
// no snapshot exists.
func (c *Cache) Load(ctx context.Context, id string) (*models.Device, error) {
	raw, err := c.client.Get(ctx, fmt.Sprintf("device:%s", id)).Result()
	if err != nil {
		return nil, err
	}
	var dev models.Device
	if err := json.Unmarshal([]byte(raw), &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}
