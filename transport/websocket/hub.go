package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-match/internal/tictactoe"
)

const DefaultSendBuffer = 64

type connectionMetrics interface {
	ConnectionOpened()
	ConnectionClosed()
}

// Hub tracks open connections and implements tictactoe.Notifier. None of its
// methods block on a slow client: a client whose buffer is full is dropped.
type Hub struct {
	logger     *slog.Logger
	metrics    connectionMetrics
	sendBuffer int

	clientsMutex sync.RWMutex
	clients      map[string]*client
}

func NewHub(logger *slog.Logger, metrics connectionMetrics, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}

	return &Hub{
		logger:     logger.With("component", "ws_hub"),
		metrics:    metrics,
		sendBuffer: sendBuffer,
		clients:    make(map[string]*client),
	}
}

// Broadcast sends the event to every open connection.
func (that *Hub) Broadcast(event tictactoe.Event) {
	log := that.logger.With("method", "Broadcast", "action", event.Action)

	data, err := encodeEvent(event)
	if err != nil {
		log.Error("failed to encode event", "error", err)
		return
	}

	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	for id, c := range that.clients {
		if !c.enqueue(frame{data: data}) {
			log.Warn("send buffer full, dropping connection", "sessionID", id)
			c.kick()
		}
	}
}

func (that *Hub) Send(sessionID string, event tictactoe.Event) {
	log := that.logger.With("method", "Send", "action", event.Action, "sessionID", sessionID)

	c, ok := that.lookup(sessionID)
	if !ok {
		log.Debug("connection not found")
		return
	}

	data, err := encodeEvent(event)
	if err != nil {
		log.Error("failed to encode event", "error", err)
		return
	}

	if !c.enqueue(frame{data: data}) {
		log.Warn("send buffer full, dropping connection")
		c.kick()
	}
}

// Disconnect closes the connection once the frames already queued for it are
// written.
func (that *Hub) Disconnect(sessionID string) {
	c, ok := that.lookup(sessionID)
	if !ok {
		return
	}

	if !c.enqueue(frame{last: true}) {
		c.kick()
	}
}

func (that *Hub) Len() int {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	return len(that.clients)
}

func (that *Hub) register(conn *websocket.Conn) *client {
	c := newClient(uuid.New().String(), conn, that.sendBuffer)

	that.clientsMutex.Lock()
	that.clients[c.id] = c
	that.clientsMutex.Unlock()

	if that.metrics != nil {
		that.metrics.ConnectionOpened()
	}

	that.logger.Info("connection registered", "sessionID", c.id)

	return c
}

func (that *Hub) unregister(c *client) {
	that.clientsMutex.Lock()
	if current, ok := that.clients[c.id]; ok && current == c {
		delete(that.clients, c.id)
	}
	that.clientsMutex.Unlock()

	c.kick()

	if that.metrics != nil {
		that.metrics.ConnectionClosed()
	}

	that.logger.Info("connection unregistered", "sessionID", c.id)
}

func (that *Hub) lookup(sessionID string) (*client, bool) {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	c, ok := that.clients[sessionID]
	return c, ok
}
