package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scatter/internal/core/events/bus"
	"github.com/zeusync/scatter/internal/core/observability/log"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	return cfg
}

func startServer(t *testing.T, b bus.EventBus, opts ...Option) *Server {
	t.Helper()
	s, err := New(testConfig(), b, log.NewNop(), opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestFeedRelaysBusEvents(t *testing.T) {
	b := bus.New()
	s := startServer(t, b)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(bus.NewEvent("object.spawned", "gen", map[string]int{"object_id": 7})))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type   string         `json:"type"`
		Source string         `json:"source"`
		Data   map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "object.spawned", msg.Type)
	assert.Equal(t, "gen", msg.Source)
	assert.Equal(t, 7, msg.Data["object_id"])
}

func TestShutdownDisconnectsClients(t *testing.T) {
	b := bus.New()
	s, err := New(testConfig(), b, log.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, uint64(0), b.GetMetrics().SubscribersActive)

	assert.ErrorIs(t, s.Shutdown(ctx), ErrServerNotRunning)
	assert.ErrorIs(t, s.Start(ctx), ErrServerClosed)
}

func TestStartTwice(t *testing.T) {
	s := startServer(t, bus.New())
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerAlreadyRunning)
}

func TestHealthAndStats(t *testing.T) {
	s, err := New(testConfig(), bus.New(), nil, WithStats(func() any {
		return map[string]int{"live": 3}
	}))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 3, stats["live"])

	resp, err = http.Post(ts.URL+"/stats", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestClearEndpoint(t *testing.T) {
	var cleared int
	s, err := New(testConfig(), bus.New(), nil, WithClear(func() { cleared++ }))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/clear", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, cleared)

	resp, err = http.Get(ts.URL + "/clear")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 1
	cfg.Burst = 2
	s, err := New(cfg, bus.New(), nil)
	require.NoError(t, err)
	defer s.limiter.Stop()
	h := s.Handler()

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORSHeaders(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"http://viewer.test"}
	s, err := New(cfg, bus.New(), nil)
	require.NoError(t, err)
	defer s.limiter.Stop()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://viewer.test")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://viewer.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://elsewhere.test")
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewValidates(t *testing.T) {
	cfg := testConfig()
	cfg.SendBuffer = 0
	_, err := New(cfg, bus.New(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(testConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func startServerWith(t *testing.T, cfg Config) *Server {
	t.Helper()
	s, err := New(cfg, bus.New(), log.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestOversizedClientFrameDisconnects(t *testing.T) {
	cfg := testConfig()
	cfg.ReadLimit = 64
	s := startServerWith(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, make([]byte, 1024)))
	require.Eventually(t, func() bool { return s.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestServerPingsClients(t *testing.T) {
	cfg := testConfig()
	cfg.PongWait = 500 * time.Millisecond
	cfg.PingPeriod = 20 * time.Millisecond
	s := startServerWith(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	pings := make(chan struct{}, 16)
	conn.SetPingHandler(func(data string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-pings:
		case <-time.After(2 * time.Second):
			t.Fatalf("ping %d not received", i+1)
		}
	}

	// Answered pings keep the session past the pong wait.
	time.Sleep(cfg.PongWait + 100*time.Millisecond)
	assert.Equal(t, 1, s.Clients())
}

func TestSilentClientTimesOut(t *testing.T) {
	cfg := testConfig()
	cfg.PongWait = 100 * time.Millisecond
	cfg.PingPeriod = 50 * time.Millisecond
	s := startServerWith(t, cfg)

	// The client never reads, so pings go unanswered.
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty address", func(c *Config) { c.Addr = "" }},
		{"rate without burst", func(c *Config) { c.RequestsPerSecond = 5; c.Burst = 0 }},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }},
		{"no read limit", func(c *Config) { c.ReadLimit = 0 }},
		{"ping slower than pong wait", func(c *Config) { c.PingPeriod = c.PongWait }},
		{"no pong wait", func(c *Config) { c.PongWait = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			_, err := New(cfg, bus.New(), nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	cfg := testConfig()
	cfg.RequestsPerSecond = 0
	cfg.Burst = 0
	_, err := New(cfg, bus.New(), nil)
	assert.NoError(t, err, "rate limiting disabled needs no burst")
}
