package api

import (
	"context"
	"fmt"
	"net/http"

	"homelink/internal/models"
)

// ListDevices fetches one page of the caller's devices
func (c *Client) ListDevices(ctx context.Context, page int) (*models.DevicePage, error) {
	var out models.DevicePage
	path := fmt.Sprintf("/devices?page=%d", page)
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDevice fetches a device's full current state
func (c *Client) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	var out models.Device
	path := "/devices/" + id
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDeviceActions fetches a device's available-actions list
func (c *Client) GetDeviceActions(ctx context.Context, id string) ([]models.ActionTemplate, error) {
	var out []models.ActionTemplate
	path := "/devices/" + id + "/actions"
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ControlDevice submits a device command. The hub replies 204 No Content on
// success.
func (c *Client) ControlDevice(ctx context.Context, id string, command models.DeviceState) error {
	req := models.ControlDeviceRequest{DeviceID: id, Command: command}
	return c.do(ctx, http.MethodPost, "/devices/control", req, http.StatusNoContent, nil)
}

// CreateScenario persists a new scenario and returns its id (201 Created)
func (c *Client) CreateScenario(ctx context.Context, req models.CreateScenarioRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/scenarios", req, http.StatusCreated, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateScenario replaces an existing scenario (204 No Content)
func (c *Client) UpdateScenario(ctx context.Context, id string, req models.CreateScenarioRequest) error {
	return c.do(ctx, http.MethodPut, "/scenarios/"+id, req, http.StatusNoContent, nil)
}

// GetScenario fetches a scenario for editing
func (c *Client) GetScenario(ctx context.Context, id string) (*models.Scenario, error) {
	var out models.Scenario
	if err := c.do(ctx, http.MethodGet, "/scenarios/"+id, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateScene persists a new scene and returns its id (201 Created)
func (c *Client) CreateScene(ctx context.Context, req models.CreateSceneRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/scenes", req, http.StatusCreated, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateScene replaces an existing scene (204 No Content)
func (c *Client) UpdateScene(ctx context.Context, id string, req models.CreateSceneRequest) error {
	return c.do(ctx, http.MethodPut, "/scenes/"+id, req, http.StatusNoContent, nil)
}

// GetScene fetches a scene for editing
func (c *Client) GetScene(ctx context.Context, id string) (*models.Scene, error) {
	var out models.Scene
	if err := c.do(ctx, http.MethodGet, "/scenes/"+id, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
