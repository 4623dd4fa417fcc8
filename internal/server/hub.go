package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/scatter/internal/core/observability/log"
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans encoded events out to websocket clients. Clients are read-only
// consumers; anything they send is discarded.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	closed  bool

	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration
	readLimit    int64
	pongWait     time.Duration
	pingPeriod   time.Duration
	logger       log.Log

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func newHub(cfg Config, logger log.Log) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks are handled by the CORS layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sendBuffer:   cfg.SendBuffer,
		writeTimeout: cfg.WriteTimeout,
		readLimit:    cfg.ReadLimit,
		pongWait:     cfg.PongWait,
		pingPeriod:   cfg.PingPeriod,
		logger:       logger,
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}
	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
		_ = conn.Close()
		return
	}

	clientLogger := h.logger.With(log.String("client_id", c.id))
	clientLogger.Info("Client connected",
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int("total_clients", h.Len()))

	go h.writePump(c, clientLogger)
	h.readPump(c)

	h.unregister(c)
	clientLogger.Info("Client disconnected", log.Int("total_clients", h.Len()))
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		c.close()
	}
	h.mu.Unlock()
}

// readPump drains the connection so close frames and pongs are processed.
// Oversized frames and clients silent past the pong wait end the session.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(h.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client, logger log.Log) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			h.setWriteDeadline(c)
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("Write failed", log.Error(err))
				return
			}
			h.delivered.Add(1)

		case <-ticker.C:
			h.setWriteDeadline(c)
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("Ping failed", log.Error(err))
				return
			}
		}
	}
}

func (h *Hub) setWriteDeadline(c *client) {
	if h.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	}
}

// Broadcast queues msg for every client. Clients whose buffer is full miss
// the message.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}
