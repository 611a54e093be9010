package models

// DeviceState is a device's property map. Values are bool, float64 or string
// as decoded from JSON.
type DeviceState map[string]interface{}

// Device represents a device as the hub reports it
type Device struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"` // "actuator" or "sensor"
	IsActive   bool        `json:"isActive"`
	Properties DeviceState `json:"properties"`
}

// Trigger is a scenario trigger: either a time window or a device-state
// comparison. Type selects which fields are meaningful.
type Trigger struct {
	Type         string      `json:"type"` // "time" or "device"
	StartTime    string      `json:"startTime,omitempty"`
	EndTime      string      `json:"endTime,omitempty"`
	DeviceID     string      `json:"deviceId,omitempty"`
	Comparator   string      `json:"comparator,omitempty"`
	DeviceStatus interface{} `json:"deviceStatus,omitempty"`
	Description  string      `json:"description,omitempty"`
}

// Action is one selectable device command template
type Action struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// ActionTemplate is an entry of a device's available-actions list
type ActionTemplate struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Property    string      `json:"property"`
	Value       interface{} `json:"value"`
}

// Scenario is a persisted automation rule
type Scenario struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Triggers     []Trigger `json:"triggers"`
	Actions      []Action  `json:"actions"`
	ExecutedOnce bool      `json:"executedOnce"`
	IsEnabled    bool      `json:"isEnabled"`
}

// Scene is a persisted, trigger-less bundle of actions invoked on demand
type Scene struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Actions []Action `json:"actions"`
}

// DevicePage is one page of the device listing
type DevicePage struct {
	Data        []Device `json:"data"`
	CurrentPage int      `json:"currentPage"`
	Total       int      `json:"total"`
	TotalPages  int      `json:"totalPages"`
}

// ControlDeviceRequest carries one device command
type ControlDeviceRequest struct {
	DeviceID string      `json:"deviceId"`
	Command  DeviceState `json:"command"`
}

// CreateScenarioRequest is the scenario persist payload. Actions are sent as
// ids only.
type CreateScenarioRequest struct {
	Name         string    `json:"name"`
	IsEnabled    bool      `json:"isEnabled"`
	ExecutedOnce bool      `json:"executedOnce"`
	Triggers     []Trigger `json:"triggers"`
	Actions      []string  `json:"actions"`
}

// CreateSceneRequest is the scene persist payload
type CreateSceneRequest struct {
	Name    string   `json:"name"`
	Actions []string `json:"actions"`
}

// LoginRequest for hub authentication
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
