// Package gateway serves the WebSocket RPC surface.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/pkg/protocol"
)

// Version is the server version reported on connect.
const Version = "0.3.0"

// Server accepts WebSocket clients and routes their RPC frames.
type Server struct {
	cfgMu sync.RWMutex
	cfg   *config.Config

	clientsMu sync.RWMutex
	clients   map[string]*Client

	router   *MethodRouter
	limiter  *RateLimiter
	upgrader websocket.Upgrader

	httpSrv   *http.Server
	startedAt time.Time
	eventSeq  atomic.Int64
}

func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		clients: make(map[string]*Client),
		limiter: NewRateLimiter(cfg.Gateway.RateLimitPerMin, 10),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Local gateway; clients authenticate via connect token.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		startedAt: time.Now(),
	}
	s.router = NewMethodRouter(s)
	return s
}

// Router exposes the method router so feature packages can register
// their handlers.
func (s *Server) Router() *MethodRouter { return s.router }

// Config returns the current config snapshot.
func (s *Server) Config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// SetConfig swaps the config on hot reload.
func (s *Server) SetConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	slog.Info("gateway config reloaded", "hash", cfg.Hash())
}

// Start blocks serving HTTP until ctx is canceled, then drains.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.httpSrv = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r.RemoteAddr) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, s)
	s.addClient(client)
	defer s.removeClient(client)

	slog.Debug("client connected", "client", client.id, "remote", r.RemoteAddr)
	client.Run(r.Context())
}

func (s *Server) addClient(c *Client) {
	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()
}

func (s *Server) removeClient(c *Client) {
	s.clientsMu.Lock()
	delete(s.clients, c.id)
	s.clientsMu.Unlock()
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast sends an event frame to every authenticated client. Seq is
// assigned here so clients can detect dropped events.
func (s *Server) Broadcast(event protocol.EventFrame) {
	event.Seq = s.eventSeq.Add(1)
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		if c.authenticated {
			c.SendEvent(event)
		}
	}
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startedAt)
}
