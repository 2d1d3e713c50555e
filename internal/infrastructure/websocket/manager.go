package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"questrank/internal/domain/service"
	"questrank/pkg/logger"
)

// Client represents one user's WebSocket connection.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager delivers progression and quest events to connected clients. It is
// one NotificationSink implementation: delivery is best-effort, a slow or
// absent client never blocks the mutation that produced the event.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     logger.Logger
}

func NewManager(logger logger.Logger) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				m.logger.Debug("notification client registered", "userId", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client.UserID]; ok {
					delete(m.clients, client.UserID)
					close(client.Send)
				}
				m.mutex.Unlock()
				m.logger.Debug("notification client unregistered", "userId", client.UserID)

			case <-ctx.Done():
				close(m.done)
				return
			}
		}
	}()
}

// Publish implements service.NotificationSink. Events for users without a
// live connection are dropped; so are events for clients whose send buffer
// is full.
func (m *Manager) Publish(ctx context.Context, event service.NotificationEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	m.mutex.RLock()
	client, ok := m.clients[event.UserID]
	m.mutex.RUnlock()
	if !ok {
		return nil
	}

	select {
	case client.Send <- message:
	default:
		m.logger.Warn("notification dropped, client send buffer full", "userId", event.UserID, "kind", event.Kind)
	}
	return nil
}

// unregister hands the client back to the main loop. After shutdown the
// loop is gone, so the send must not block.
func (m *Manager) unregister(c *Client) {
	select {
	case m.Unregister <- c:
	case <-m.done:
	}
}

// ReadPump drains the connection until it closes; incoming frames are
// ignored, the notification channel is one-way.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump sends queued events to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
