package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NotificationsGroup is the group every notification client joins
const NotificationsGroup = "notifications"

// Event types pushed to clients
const (
	EventVoteCast        = "vote.cast"
	EventStudentCreated  = "student.created"
	EventVoterRegistered = "voter.registered"
	EventEcho            = "echo"
)

// Message represents a message sent over WebSocket
type Message struct {
	Type      string      `json:"type"`
	Group     string      `json:"-"`
	Message   string      `json:"message"`
	Payload   interface{} `json:"payload,omitempty"`
	IPAddress string      `json:"ipAddress,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients organized by group name
	clients map[string]map[*Client]bool

	// Channel for outbound group messages
	broadcast chan *Message

	register   chan *Client
	unregister chan *Client

	// Frames addressed to a single client
	direct chan envelope

	// Closed when Run returns
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan envelope, 64),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

type envelope struct {
	client *Client
	data   []byte
}

// Run handles client registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case env := <-h.direct:
			h.sendDirect(env)

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Publish queues an event for every client of the notifications group.
// It never blocks; when the queue is full the event is dropped.
func (h *Hub) Publish(eventType, text string, payload interface{}) {
	msg := &Message{
		Type:      eventType,
		Group:     NotificationsGroup,
		Message:   text,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn().Str("type", eventType).Msg("Notification queue full, event dropped")
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.group]; !ok {
		h.clients[client.group] = make(map[*Client]bool)
	}
	h.clients[client.group][client] = true

	h.logger.Info().
		Str("group", client.group).
		Str("addr", client.ipAddress).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked drops client from its group; h.mu must be held
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.group]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.group)
	}

	h.logger.Info().
		Str("group", client.group).
		Str("addr", client.ipAddress).
		Msg("Client unregistered")
}

func (h *Hub) sendDirect(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[env.client.group][env.client] {
		return
	}
	select {
	case env.client.send <- env.data:
	default:
		h.removeLocked(env.client)
	}
}

// broadcastMessage broadcasts a message to all clients in its group
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("type", message.Type).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[message.Group]
	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow or gone; drop it
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("group", message.Group).
		Str("type", message.Type).
		Int("clientCount", len(clients)).
		Msg("Message broadcasted to group")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// ClientsCount returns the number of connected clients in a group
func (h *Hub) ClientsCount(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[group])
}
