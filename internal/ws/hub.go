// Package ws implements the realtime transport: a WebSocket hub with one
// channel per party (rider or provider) fed by the engine's bus events.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dispatch/internal/bus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn wraps a websocket.Conn with a write mutex. gorilla/websocket
// allows one concurrent writer; this enforces that.
type safeConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// Hub manages WebSocket connections per party ID.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*safeConn
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string][]*safeConn)}
}

// Handle upgrades the connection and subscribes it to a party channel.
// Registered as GET /v1/ws/:party.
func (h *Hub) Handle(c *gin.Context) {
	partyID := c.Param("party")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	conn := &safeConn{ws: ws}

	h.mu.Lock()
	h.conns[partyID] = append(h.conns[partyID], conn)
	h.mu.Unlock()

	// Block until the client disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(partyID, conn)
	ws.Close()
}

// Push sends a frame to every connection of a party.
func (h *Hub) Push(partyID string, frame any) {
	h.mu.RLock()
	conns := append([]*safeConn(nil), h.conns[partyID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.writeJSON(frame); err != nil {
			log.Printf("[ws] write error for party %s: %v", partyID, err)
		}
	}
}

func (h *Hub) remove(partyID string, conn *safeConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[partyID]
	for i, c := range conns {
		if c == conn {
			h.conns[partyID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[partyID]) == 0 {
		delete(h.conns, partyID)
	}
}

// frame is the envelope pushed to clients.
type frame struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// BridgeBus subscribes the hub to engine topics and fans events out to the
// parties they concern.
func (h *Hub) BridgeBus(ctx context.Context, b bus.Bus) {
	b.Subscribe(ctx, bus.TopicOfferCreated, "ws-bridge", func(data []byte) error {
		var ev bus.OfferCreatedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		h.Push(ev.ProviderID, frame{Topic: bus.TopicOfferCreated, Data: data})
		return nil
	})

	b.Subscribe(ctx, bus.TopicOfferAccepted, "ws-bridge", func(data []byte) error {
		var ev bus.OfferAcceptedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		h.Push(ev.ProviderID, frame{Topic: bus.TopicOfferAccepted, Data: data})
		return nil
	})

	b.Subscribe(ctx, bus.TopicTripStatus, "ws-bridge", func(data []byte) error {
		var ev bus.TripStatusEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		h.Push(ev.RiderID, frame{Topic: bus.TopicTripStatus, Data: data})
		if ev.ProviderID != "" {
			h.Push(ev.ProviderID, frame{Topic: bus.TopicTripStatus, Data: data})
		}
		return nil
	})

	b.Subscribe(ctx, bus.TopicLocation, "ws-bridge", func(data []byte) error {
		var ev bus.LocationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		if ev.TripID != "" {
			h.Push(ev.TripID, frame{Topic: bus.TopicLocation, Data: data})
		}
		return nil
	})
}
