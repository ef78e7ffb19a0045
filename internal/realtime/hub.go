package realtime

import (
	"context"
	"sync"
	"time"

	"chatrelay/config"
	"chatrelay/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pingTimeout  = 5 * time.Second
)

// Client is one registered connection.
type Client struct {
	ID     string
	UserID uuid.UUID
	conn   Conn
	send   chan Event

	ctx    context.Context
	cancel context.CancelFunc
}

// Hub owns the live connections held by this process, keyed by connection id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	sendBuffer   int
	pingInterval time.Duration
	metrics      *metrics.Recorder
	log          *zap.Logger
}

func NewHub(cfg config.WSConfig, recorder *metrics.Recorder, log *zap.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &Hub{
		clients:      make(map[string]*Client),
		sendBuffer:   cfg.SendBuffer,
		pingInterval: cfg.PingInterval,
		metrics:      recorder,
		log:          log,
	}
}

// Register mints a connection id for conn and starts its writer.
func (h *Hub) Register(userID uuid.UUID, conn Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan Event, h.sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	go h.writeLoop(c)
	if h.pingInterval > 0 {
		go h.keepAliveLoop(c)
	}

	h.metrics.ConnectionOpened()
	return c
}

// Unregister stops the client's writer. It reports whether the client was
// still registered.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.mu.Unlock()

	c.cancel()
	if ok {
		h.metrics.ConnectionClosed()
	}
	return ok
}

// Push queues ev for the connection. It returns false when the connection is
// unknown or its buffer is full; the event is dropped in both cases.
func (h *Hub) Push(connID string, ev Event) bool {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()

	delivered := ok && c.enqueue(ev)
	h.metrics.Push(ev.Type, delivered)
	if ok && !delivered {
		h.log.Warn("send buffer full, event dropped",
			zap.String("connId", connID),
			zap.String("event", ev.Type),
		)
	}
	return delivered
}

// Broadcast queues ev for every connection not owned by except. Pass
// uuid.Nil to reach everyone.
func (h *Hub) Broadcast(ev Event, except uuid.UUID) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if except != uuid.Nil && c.UserID == except {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		ok := c.enqueue(ev)
		h.metrics.Push(ev.Type, ok)
		if ok {
			sent++
		}
	}
	return sent
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection, used on shutdown.
func (h *Hub) CloseAll(reason string) {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.cancel()
		_ = c.conn.Close(websocket.StatusGoingAway, reason)
		h.metrics.ConnectionClosed()
	}
}

func (c *Client) enqueue(ev Event) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (h *Hub) writeLoop(c *Client) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := c.conn.Write(ctx, ev)
			cancel()
			if err != nil {
				h.log.Debug("write failed",
					zap.String("connId", c.ID),
					zap.String("event", ev.Type),
					zap.Error(err),
				)
			}
		}
	}
}

func (h *Hub) keepAliveLoop(c *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, pingTimeout)
			_ = c.conn.Ping(ctx)
			cancel()
		}
	}
}
