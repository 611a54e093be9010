package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"homelink/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTTransport delivers push events over MQTT. Per-device topics:
// devices/{id}/data carries partial property maps, devices/{id}/heartbeat
// carries a JSON boolean.
type MQTTTransport struct {
	client    mqtt.Client
	events    chan Event
	connected chan struct{}
}

// NewMQTTTransport creates an MQTT transport for the given broker
func NewMQTTTransport(broker, clientID string) *MQTTTransport {
	t := &MQTTTransport{
		events:    make(chan Event, 256),
		connected: make(chan struct{}, 1),
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			select {
			case t.connected <- struct{}{}:
			default:
			}
		})
	t.client = mqtt.NewClient(opts)
	return t
}

// Connect connects to the broker. Reconnects are handled by paho and
// announced through the Connected channel.
func (t *MQTTTransport) Connect() error {
	if token := t.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("realtime: mqtt connect: %w", token.Error())
	}
	return nil
}

// Subscribe subscribes the data and heartbeat topics for one device
func (t *MQTTTransport) Subscribe(deviceID string) error {
	topics := map[string]byte{
		fmt.Sprintf("devices/%s/data", deviceID):      1,
		fmt.Sprintf("devices/%s/heartbeat", deviceID): 1,
	}
	if token := t.client.SubscribeMultiple(topics, t.onMessage); token.Wait() && token.Error() != nil {
		return fmt.Errorf("realtime: mqtt subscribe %s: %w", deviceID, token.Error())
	}
	return nil
}

// Unsubscribe drops both topics for one device
func (t *MQTTTransport) Unsubscribe(deviceID string) error {
	token := t.client.Unsubscribe(
		fmt.Sprintf("devices/%s/data", deviceID),
		fmt.Sprintf("devices/%s/heartbeat", deviceID),
	)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("realtime: mqtt unsubscribe %s: %w", deviceID, token.Error())
	}
	return nil
}

// Events delivers inbound events
func (t *MQTTTransport) Events() <-chan Event { return t.events }

// Connected signals every successful (re)connect
func (t *MQTTTransport) Connected() <-chan struct{} { return t.connected }

// Close disconnects from the broker
func (t *MQTTTransport) Close() {
	t.client.Disconnect(250)
}

func (t *MQTTTransport) onMessage(_ mqtt.Client, msg mqtt.Message) {
	deviceID, kind := parseTopic(msg.Topic())
	if deviceID == "" {
		return
	}

	var ev Event
	switch kind {
	case "data":
		var delta models.DeviceState
		if err := json.Unmarshal(msg.Payload(), &delta); err != nil {
			log.Printf("REALTIME: bad data payload on %s: %v", msg.Topic(), err)
			return
		}
		ev = Event{DeviceID: deviceID, Kind: DataEvent, Delta: delta}
	case "heartbeat":
		var alive bool
		if err := json.Unmarshal(msg.Payload(), &alive); err != nil {
			log.Printf("REALTIME: bad heartbeat payload on %s: %v", msg.Topic(), err)
			return
		}
		ev = Event{DeviceID: deviceID, Kind: HeartbeatEvent, Alive: alive}
	default:
		return
	}

	select {
	case t.events <- ev:
	default:
		log.Printf("REALTIME: event buffer full, dropping %s event for %s", kind, deviceID)
	}
}

// parseTopic splits devices/{id}/{kind}
func parseTopic(topic string) (deviceID, kind string) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "devices" {
		return "", ""
	}
	return parts[1], parts[2]
}
