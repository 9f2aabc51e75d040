package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// terminalEvent is an internal struct for routing events to a terminal's displays
type terminalEvent struct {
	TerminalID uuid.UUID
	Event      Event
}

// Hub maintains the set of customer displays and broadcasts messages to them
type Hub struct {
	// Registered clients by terminal ID
	rooms map[uuid.UUID]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *terminalEvent

	// Latest message per terminal, replayed to displays that attach mid-sale
	last map[uuid.UUID][]byte

	logger *zap.Logger

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *terminalEvent, 256),
		last:       make(map[uuid.UUID][]byte),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done, closing every
// client's send channel.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.terminalID] == nil {
				h.rooms[client.terminalID] = make(map[*Client]bool)
			}
			h.rooms[client.terminalID][client] = true
			if msg, ok := h.last[client.terminalID]; ok {
				client.send <- msg
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.TerminalID]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				h.logger.Warn("marshal display event", zap.String("type", event.Event.Type), zap.Error(err))
				continue
			}

			h.last[event.TerminalID] = message

			// Send to all displays of this terminal
			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.terminalID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	// Clean up empty rooms
	if len(clients) == 0 {
		delete(h.rooms, client.terminalID)
	}
}

// Register adds c to its terminal's room. It is a no-op once the hub stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes c from its room. It is a no-op once the hub stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastToTerminal queues an event for every display of a terminal. The
// event is dropped when the queue is full so that callers never block.
func (h *Hub) BroadcastToTerminal(terminalID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &terminalEvent{TerminalID: terminalID, Event: event}:
	default:
		h.logger.Warn("display queue full, dropping event", zap.String("type", event.Type))
	}
}

// Publisher publishes events to a single terminal's displays.
type Publisher struct {
	hub        *Hub
	terminalID uuid.UUID
}

// Publisher returns a Publisher bound to terminalID.
func (h *Hub) Publisher(terminalID uuid.UUID) *Publisher {
	return &Publisher{hub: h, terminalID: terminalID}
}

// Publish marshals payload and broadcasts it as an event of eventType.
func (p *Publisher) Publish(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.hub.logger.Warn("marshal display payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	p.hub.BroadcastToTerminal(p.terminalID, Event{Type: eventType, Payload: data})
}
