// Package stream pushes committed alert events to websocket clients.
package stream

import (
	"encoding/json"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Hub fans committed events out to the connected clients.
// ⭐ SSOT: 이벤트 브로드캐스트는 이 허브에서만
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	logger     *logger.Logger
}

// NewHub creates an event hub. Call Run in its own goroutine.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     log.WithComponent("stream-hub"),
	}
}

// Run owns the client set; all membership changes and broadcasts go
// through this single goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.WithField("clients", len(h.clients)).Debug("Client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.WithField("clients", len(h.clients)).Debug("Client disconnected")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 느린 클라이언트는 버림
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Stop disconnects every client and terminates Run.
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastEvent pushes one committed event to all clients. Satisfies
// the alert engine's Broadcaster interface.
func (h *Hub) BroadcastEvent(event contracts.Event) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": "event",
		"data": event,
		"ts":   time.Now().Unix(),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event for broadcast")
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast queue full, event dropped")
	}
}
