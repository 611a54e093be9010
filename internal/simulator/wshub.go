package simulator

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"homelink/internal/models"
)

// syncFrame is the WebSocket sync protocol, both directions. Clients send
// {"type":"subscribe"|"unsubscribe","deviceId":...}; the hub pushes
// {"type":"data",...,"payload":{...}} and {"type":"heartbeat",...,"alive":bool}.
type syncFrame struct {
	Type     string             `json:"type"`
	DeviceID string             `json:"deviceId"`
	Payload  models.DeviceState `json:"payload,omitempty"`
	Alive    *bool              `json:"alive,omitempty"`
}

// WSHub serves the WebSocket side of the sync channel. Each connection keeps
// its own subscription set; pushes go only to connections subscribed to the
// device.
type WSHub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]map[string]bool
}

// NewWSHub creates an empty hub
func NewWSHub() *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]map[string]bool),
	}
}

// Handle upgrades the request and runs the connection's read loop
func (h *WSHub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("SIMULATOR: ws upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = make(map[string]bool)
	h.mu.Unlock()
	log.Printf("SIMULATOR: ws client connected (%d total)", h.count())

	go h.readLoop(conn)
}

func (h *WSHub) readLoop(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		var frame syncFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Type {
		case "subscribe":
			h.setSubscribed(conn, frame.DeviceID, true)
		case "unsubscribe":
			h.setSubscribed(conn, frame.DeviceID, false)
		default:
			log.Printf("SIMULATOR: unknown ws frame type %q", frame.Type)
		}
	}
}

func (h *WSHub) setSubscribed(conn *websocket.Conn, deviceID string, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.conns[conn]
	if !ok {
		return
	}
	if on {
		subs[deviceID] = true
	} else {
		delete(subs, deviceID)
	}
}

func (h *WSHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
	log.Printf("SIMULATOR: ws client disconnected (%d total)", h.count())
}

func (h *WSHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// broadcast writes the frame to every connection subscribed to its device.
// Writes are serialized under the hub lock.
func (h *WSHub) broadcast(frame syncFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, subs := range h.conns {
		if !subs[frame.DeviceID] {
			continue
		}
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("SIMULATOR: ws write failed: %v", err)
		}
	}
}

// PublishData pushes a property delta to subscribed connections
func (h *WSHub) PublishData(deviceID string, delta models.DeviceState) error {
	h.broadcast(syncFrame{Type: "data", DeviceID: deviceID, Payload: delta})
	return nil
}

// PublishHeartbeat pushes a liveness report to subscribed connections
func (h *WSHub) PublishHeartbeat(deviceID string, alive bool) error {
	h.broadcast(syncFrame{Type: "heartbeat", DeviceID: deviceID, Alive: &alive})
	return nil
}
