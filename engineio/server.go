package engineio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSlowClient    = errors.New("slow client")
)

// protocolVersion is the only Engine.IO revision served.
const protocolVersion = "4"

// Config holds Engine.IO server configuration
type Config struct {
	PingInterval   time.Duration
	PingTimeout    time.Duration
	MaxPayload     int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns default Engine.IO configuration
func DefaultConfig() *Config {
	return &Config{
		PingInterval: 25 * time.Second,
		PingTimeout:  20 * time.Second,
		MaxPayload:   1e6,
	}
}

func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		c = defaults
	}

	out := *c
	if out.PingInterval <= 0 {
		out.PingInterval = defaults.PingInterval
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = defaults.PingTimeout
	}
	if out.MaxPayload <= 0 {
		out.MaxPayload = defaults.MaxPayload
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out
}

// Server represents an Engine.IO server
type Server struct {
	config    *Config
	upgrader  websocket.Upgrader
	sessions  sync.Map
	onConnect func(*Session)
	log       *slog.Logger
}

// NewServer creates a new Engine.IO server
func NewServer(config *Config) *Server {
	config = config.withDefaults()
	policy := newOriginPolicy(config.AllowedOrigins, config.Logger)

	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin:     policy.check,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: config.Logger,
	}
}

// ServeHTTP upgrades the request to a WebSocket session
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	if eio := query.Get("EIO"); eio != "" && eio != protocolVersion {
		http.Error(w, "unsupported protocol version", http.StatusBadRequest)
		return
	}
	if query.Get("transport") != "websocket" {
		http.Error(w, "Only WebSocket transport is supported", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(s.config.MaxPayload)

	sid := uuid.NewString()
	session := NewSession(sid, conn, s)

	handshake, err := EncodeHandshake(sid, s.config.PingInterval, s.config.PingTimeout, s.config.MaxPayload)
	if err != nil {
		s.log.Error("handshake encoding failed", "sid", sid, "error", err)
		_ = conn.Close()
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, handshake); err != nil {
		s.log.Debug("handshake write failed", "sid", sid, "error", err)
		_ = conn.Close()
		return
	}

	s.sessions.Store(sid, session)
	session.OnClose(func(reason string) {
		s.sessions.Delete(sid)
		s.log.Debug("engine session closed", "sid", sid, "reason", reason)
	})

	if s.onConnect != nil {
		s.onConnect(session)
	}

	session.Start()
}

// OnConnect sets the handler invoked for every new session before its
// loops start, so handlers registered there see the first message.
func (s *Server) OnConnect(fn func(*Session)) {
	s.onConnect = fn
}

// Close closes every session and waits until their close handlers have
// returned or ctx is done.
func (s *Server) Close(ctx context.Context) error {
	var sessions []*Session
	s.sessions.Range(func(_, value any) bool {
		session := value.(*Session)
		session.Close("server shutdown")
		sessions = append(sessions, session)
		return true
	})

	for _, session := range sessions {
		select {
		case <-session.Done():
		case <-ctx.Done():
			return fmt.Errorf("close sessions: %w", ctx.Err())
		}
	}
	return nil
}
