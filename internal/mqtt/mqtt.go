package mqtt

import (
	"encoding/json"
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"homelink/internal/models"
)

// NewClient initializes and returns a connected MQTT.Client
func NewClient(broker, clientID string) (MQTT.Client, error) {
	opts := MQTT.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetAutoReconnect(true)
	c := MQTT.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return c, nil
}

// Publisher pushes device updates onto the sync topics
type Publisher struct {
	client MQTT.Client
}

// NewPublisher wraps a connected client
func NewPublisher(client MQTT.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishData sends a property delta on devices/{id}/data
func (p *Publisher) PublishData(deviceID string, delta models.DeviceState) error {
	payload, err := json.Marshal(delta)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("devices/%s/data", deviceID)
	token := p.client.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

// PublishHeartbeat sends a liveness report on devices/{id}/heartbeat
func (p *Publisher) PublishHeartbeat(deviceID string, alive bool) error {
	payload, err := json.Marshal(alive)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("devices/%s/heartbeat", deviceID)
	token := p.client.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

// Close disconnects the underlying client
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
