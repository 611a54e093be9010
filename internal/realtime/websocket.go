package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"homelink/internal/models"

	"github.com/gorilla/websocket"
)

// wsFrame is the wire format of the WebSocket sync channel, both directions.
// Outbound: {"type":"subscribe"|"unsubscribe","deviceId":...}. Inbound:
// {"type":"data","deviceId":...,"payload":{...}} and
// {"type":"heartbeat","deviceId":...,"alive":bool}.
type wsFrame struct {
	Type     string             `json:"type"`
	DeviceID string             `json:"deviceId"`
	Payload  models.DeviceState `json:"payload,omitempty"`
	Alive    *bool              `json:"alive,omitempty"`
}

// WSTransport delivers push events over a WebSocket connection, reconnecting
// with a fixed delay whenever the connection drops.
type WSTransport struct {
	url        string
	retryDelay time.Duration

	events    chan Event
	connected chan struct{}
	done      chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSTransport creates a WebSocket transport for the given URL, e.g.
// "ws://hub.local:5069/sync"
func NewWSTransport(url string, retryDelay time.Duration) *WSTransport {
	if retryDelay == 0 {
		retryDelay = 2 * time.Second
	}
	return &WSTransport{
		url:        url,
		retryDelay: retryDelay,
		events:     make(chan Event, 256),
		connected:  make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Connect dials the hub and starts the reconnect loop. The initial dial
// happens synchronously so a bad URL fails fast.
func (t *WSTransport) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(t.url, nil)
	if err != nil {
		return fmt.Errorf("realtime: ws dial %s: %w", t.url, err)
	}
	t.setConn(conn)
	t.announce()
	go t.loop(conn)
	return nil
}

// Subscribe asks the hub to push events for the device
func (t *WSTransport) Subscribe(deviceID string) error {
	return t.send(wsFrame{Type: "subscribe", DeviceID: deviceID})
}

// Unsubscribe asks the hub to stop pushing events for the device
func (t *WSTransport) Unsubscribe(deviceID string) error {
	return t.send(wsFrame{Type: "unsubscribe", DeviceID: deviceID})
}

// Events delivers inbound events
func (t *WSTransport) Events() <-chan Event { return t.events }

// Connected signals every successful (re)connect
func (t *WSTransport) Connected() <-chan struct{} { return t.connected }

// Close stops the reconnect loop and closes the connection
func (t *WSTransport) Close() {
	close(t.done)
	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
	}
	t.mu.Unlock()
}

func (t *WSTransport) setConn(conn *websocket.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}

func (t *WSTransport) announce() {
	select {
	case t.connected <- struct{}{}:
	default:
	}
}

func (t *WSTransport) send(frame wsFrame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		// Disconnected; the resubscribe after the next connect covers it
		return nil
	}
	return t.conn.WriteJSON(frame)
}

// loop reads the current connection until it fails, then redials forever
// until Close.
func (t *WSTransport) loop(conn *websocket.Conn) {
	for {
		t.read(conn)
		t.setConn(nil)

		select {
		case <-t.done:
			return
		default:
		}
		log.Println("REALTIME: ws disconnected, reconnecting...")
		time.Sleep(t.retryDelay)

		next, _, err := websocket.DefaultDialer.Dial(t.url, nil)
		if err != nil {
			log.Printf("REALTIME: ws redial failed: %v", err)
			continue
		}
		conn = next
		t.setConn(conn)
		t.announce()
	}
}

func (t *WSTransport) read(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			log.Printf("REALTIME: bad ws frame: %v", err)
			continue
		}

		var ev Event
		switch frame.Type {
		case "data":
			ev = Event{DeviceID: frame.DeviceID, Kind: DataEvent, Delta: frame.Payload}
		case "heartbeat":
			alive := frame.Alive != nil && *frame.Alive
			ev = Event{DeviceID: frame.DeviceID, Kind: HeartbeatEvent, Alive: alive}
		default:
			continue
		}

		select {
		case t.events <- ev:
		default:
			log.Printf("REALTIME: event buffer full, dropping %s event for %s", frame.Type, frame.DeviceID)
		}
	}
}
