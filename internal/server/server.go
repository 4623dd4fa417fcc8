// Package server exposes a running generator over HTTP: a websocket event
// feed, stats, health, and a clear trigger.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeusync/scatter/internal/core/events/bus"
	"github.com/zeusync/scatter/internal/core/observability/log"
	"github.com/zeusync/scatter/pkg/generic"
)

var bufferPool = generic.NewResetPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

// Config holds server configuration
type Config struct {
	Addr           string
	AllowedOrigins []string

	// SendBuffer is the per-client queue length of the event feed.
	SendBuffer   int
	WriteTimeout time.Duration

	// ReadLimit caps inbound frame size. PongWait bounds the silence allowed
	// from a client; pings go out every PingPeriod, which must be shorter.
	ReadLimit  int64
	PongWait   time.Duration
	PingPeriod time.Duration

	// Per-client request limits for the HTTP endpoints.
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:8080",
		SendBuffer:        256,
		WriteTimeout:      5 * time.Second,
		ReadLimit:         4096,
		PongWait:          60 * time.Second,
		PingPeriod:        54 * time.Second,
		RequestsPerSecond: 20,
		Burst:             40,
	}
}

func (c Config) validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("send buffer must be positive, got %d", c.SendBuffer))
	}
	if c.RequestsPerSecond < 0 || c.Burst < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		errs = append(errs, fmt.Errorf("burst must be at least 1 when a request rate is set, got %d", c.Burst))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("read limit must be positive, got %d", c.ReadLimit))
	}
	if c.PongWait <= 0 || c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		errs = append(errs, fmt.Errorf("ping period %s must be positive and shorter than pong wait %s", c.PingPeriod, c.PongWait))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Message is the JSON frame sent to feed clients.
type Message struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Server serves the event feed and control endpoints.
type Server struct {
	cfg    Config
	logger log.Log
	bus    bus.EventBus

	stats   func() any
	onClear func()

	hub      *Hub
	limiter  *RateLimiter
	http     *http.Server
	listener net.Listener
	sub      bus.Subscription

	running atomic.Bool
	closed  atomic.Bool
}

// Option customizes a Server.
type Option func(*Server)

// WithStats sets the provider behind GET /stats.
func WithStats(fn func() any) Option {
	return func(s *Server) { s.stats = fn }
}

// WithClear enables POST /clear.
func WithClear(fn func()) Option {
	return func(s *Server) { s.onClear = fn }
}

// New builds a server that relays every event published on eventBus.
func New(cfg Config, eventBus bus.EventBus, logger log.Log, opts ...Option) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if eventBus == nil {
		return nil, fmt.Errorf("%w: nil event bus", ErrInvalidConfig)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "server"))

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		bus:     eventBus,
		hub:     newHub(cfg, logger),
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed, rate-limited, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/clear", s.handleClear)

	return newCORS(s.cfg.AllowedOrigins).Handler(s.limiter.Middleware(mux))
}

// Start subscribes to the bus and begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	sub, err := s.bus.Subscribe(bus.Wildcard, s.relay)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("subscribe to events: %w", err)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		_ = sub.Cancel()
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	s.sub = sub
	s.listener = ln
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests, disconnects feed clients and releases
// the bus subscription.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.closed.Store(true)

	s.logger.Info("Stopping server")
	_ = s.sub.Cancel()
	s.hub.Close()
	err := s.http.Shutdown(ctx)
	s.limiter.Stop()
	s.logger.Info("Server stopped")
	return err
}

// Clients returns the number of connected feed clients.
func (s *Server) Clients() int {
	return s.hub.Len()
}

func (s *Server) relay(event bus.Event) error {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	err := json.NewEncoder(buf).Encode(Message{
		Type:      event.Type(),
		Source:    event.Source(),
		Timestamp: event.Timestamp(),
		Data:      event.Data(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type(), err)
	}
	// Clients hold the frame after relay returns.
	s.hub.Broadcast(bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n")))
	return nil
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Clients   int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Clients:   s.hub.Len(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.stats == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.stats())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.onClear == nil {
		http.NotFound(w, r)
		return
	}
	s.onClear()
	s.logger.Info("Clear requested", log.String("remote_addr", r.RemoteAddr))
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
