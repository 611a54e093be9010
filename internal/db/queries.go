package db

import (
	"context"
	"encoding/json"
	"errors"

	"homelink/internal/models"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("db: not found")

// DevicePageSize is the page size of the device listing
const DevicePageSize = 20

// ListDevices fetches one page of devices plus the total count
func (d *DB) ListDevices(ctx context.Context, page int) (*models.DevicePage, error) {
	var total int
	if err := d.pool.QueryRow(ctx, "SELECT COUNT(*) FROM devices").Scan(&total); err != nil {
		return nil, err
	}

	offset := (page - 1) * DevicePageSize
	rows, err := d.pool.Query(ctx,
		"SELECT id, name, type, is_active, properties FROM devices ORDER BY id LIMIT $1 OFFSET $2",
		DevicePageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := []models.Device{}
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}

	totalPages := (total + DevicePageSize - 1) / DevicePageSize
	return &models.DevicePage{
		Data:        devices,
		CurrentPage: page,
		Total:       total,
		TotalPages:  totalPages,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (models.Device, error) {
	var dev models.Device
	var props []byte
	if err := row.Scan(&dev.ID, &dev.Name, &dev.Type, &dev.IsActive, &props); err != nil {
		return models.Device{}, err
	}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &dev.Properties); err != nil {
			return models.Device{}, err
		}
	}
	if dev.Properties == nil {
		dev.Properties = models.DeviceState{}
	}
	return dev, nil
}

// GetDeviceByID fetches a device
func (d *DB) GetDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	row := d.pool.QueryRow(ctx,
		"SELECT id, name, type, is_active, properties FROM devices WHERE id = $1", id)
	dev, err := scanDevice(row)
	if err != nil {
		return nil, ErrNotFound
	}
	return &dev, nil
}

// UpdateDeviceProperties replaces a device's property map
func (d *DB) UpdateDeviceProperties(ctx context.Context, id string, props models.DeviceState) error {
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx, "UPDATE devices SET properties = $1 WHERE id = $2", raw, id)
	return err
}

// SetDeviceActive flips a device's liveness flag
func (d *DB) SetDeviceActive(ctx context.Context, id string, active bool) error {
	_, err := d.pool.Exec(ctx, "UPDATE devices SET is_active = $1 WHERE id = $2", active, id)
	return err
}

// GetDeviceActionTemplates fetches a device's available-actions list
func (d *DB) GetDeviceActionTemplates(ctx context.Context, deviceID string) ([]models.ActionTemplate, error) {
	rows, err := d.pool.Query(ctx,
		"SELECT id, description, property, value FROM device_actions WHERE device_id = $1 ORDER BY id", deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []models.ActionTemplate{}
	for rows.Next() {
		var t models.ActionTemplate
		var value []byte
		if err := rows.Scan(&t.ID, &t.Description, &t.Property, &value); err != nil {
			return nil, err
		}
		if len(value) > 0 {
			if err := json.Unmarshal(value, &t.Value); err != nil {
				return nil, err
			}
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// GetActionsByIDs resolves action ids to actions, keeping the given order
func (d *DB) GetActionsByIDs(ctx context.Context, ids []string) ([]models.Action, error) {
	if len(ids) == 0 {
		return []models.Action{}, nil
	}
	rows, err := d.pool.Query(ctx,
		"SELECT id, description FROM device_actions WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]models.Action, len(ids))
	for rows.Next() {
		var a models.Action
		if err := rows.Scan(&a.ID, &a.Description); err != nil {
			return nil, err
		}
		byID[a.ID] = a
	}

	actions := []models.Action{}
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			actions = append(actions, a)
		}
	}
	return actions, nil
}

// InsertScenario persists a new scenario and returns its generated id
func (d *DB) InsertScenario(ctx context.Context, req models.CreateScenarioRequest) (string, error) {
	triggers, err := json.Marshal(req.Triggers)
	if err != nil {
		return "", err
	}
	actions, err := json.Marshal(req.Actions)
	if err != nil {
		return "", err
	}
	var id string
	err = d.pool.QueryRow(ctx,
		`INSERT INTO scenarios (name, triggers, actions, executed_once, is_enabled)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		req.Name, triggers, actions, req.ExecutedOnce, req.IsEnabled).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateScenario replaces an existing scenario
func (d *DB) UpdateScenario(ctx context.Context, id string, req models.CreateScenarioRequest) error {
	triggers, err := json.Marshal(req.Triggers)
	if err != nil {
		return err
	}
	actions, err := json.Marshal(req.Actions)
	if err != nil {
		return err
	}
	tag, err := d.pool.Exec(ctx,
		`UPDATE scenarios SET name = $1, triggers = $2, actions = $3, executed_once = $4, is_enabled = $5
		 WHERE id = $6`,
		req.Name, triggers, actions, req.ExecutedOnce, req.IsEnabled, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetScenarioByID fetches a scenario with its actions resolved
func (d *DB) GetScenarioByID(ctx context.Context, id string) (*models.Scenario, error) {
	var s models.Scenario
	var triggers, actionIDs []byte
	err := d.pool.QueryRow(ctx,
		"SELECT id, name, triggers, actions, executed_once, is_enabled FROM scenarios WHERE id = $1", id).
		Scan(&s.ID, &s.Name, &triggers, &actionIDs, &s.ExecutedOnce, &s.IsEnabled)
	if err != nil {
		return nil, ErrNotFound
	}
	if err := json.Unmarshal(triggers, &s.Triggers); err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(actionIDs, &ids); err != nil {
		return nil, err
	}
	s.Actions, err = d.GetActionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertScene persists a new scene and returns its generated id
func (d *DB) InsertScene(ctx context.Context, req models.CreateSceneRequest) (string, error) {
	actions, err := json.Marshal(req.Actions)
	if err != nil {
		return "", err
	}
	var id string
	err = d.pool.QueryRow(ctx,
		"INSERT INTO scenes (name, actions) VALUES ($1, $2) RETURNING id",
		req.Name, actions).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateScene replaces an existing scene
func (d *DB) UpdateScene(ctx context.Context, id string, req models.CreateSceneRequest) error {
	actions, err := json.Marshal(req.Actions)
	if err != nil {
		return err
	}
	tag, err := d.pool.Exec(ctx,
		"UPDATE scenes SET name = $1, actions = $2 WHERE id = $3", req.Name, actions, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSceneByID fetches a scene with its actions resolved
func (d *DB) GetSceneByID(ctx context.Context, id string) (*models.Scene, error) {
	var s models.Scene
	var actionIDs []byte
	err := d.pool.QueryRow(ctx,
		"SELECT id, name, actions FROM scenes WHERE id = $1", id).
		Scan(&s.ID, &s.Name, &actionIDs)
	if err != nil {
		return nil, ErrNotFound
	}
	var ids []string
	if err := json.Unmarshal(actionIDs, &ids); err != nil {
		return nil, err
	}
	s.Actions, err = d.GetActionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListDeviceIDs returns every device id with its liveness flag, for the
// heartbeat publisher
func (d *DB) ListDeviceIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := d.pool.Query(ctx, "SELECT id, is_active FROM devices")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		var active bool
		if err := rows.Scan(&id, &active); err != nil {
			return nil, err
		}
		out[id] = active
	}
	return out, nil
}
