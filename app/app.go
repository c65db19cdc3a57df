// Package app assembles the relay: the Socket.IO server, the membership
// manager, the dispatcher and the HTTP routes around them.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"

	"github.com/ramory-l/roomrelay/config"
	"github.com/ramory-l/roomrelay/moderation"
	"github.com/ramory-l/roomrelay/relay"
	"github.com/ramory-l/roomrelay/socketio"
)

// App is one running relay.
type App struct {
	cfg        config.Config
	log        *slog.Logger
	io         *socketio.Server
	manager    *relay.Manager
	dispatcher *relay.Dispatcher
	proc       *process.Process
	started    time.Time
}

// New builds an App from cfg. Nothing listens until Run or Handler is used.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	io := socketio.NewServer(&socketio.Config{
		PingInterval:   cfg.PingInterval,
		PingTimeout:    cfg.PingTimeout,
		MaxPayload:     cfg.MaxPayload,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})

	manager := relay.NewManager(io, relay.Options{
		DefaultRoom:       cfg.DefaultRoom,
		MaxNicknameLength: cfg.MaxNicknameLength,
		MaxMessageLength:  cfg.MaxMessageLength,
	}, log)

	var opts []relay.DispatcherOption
	filter, err := moderation.NewFilter(cfg.CensoredWords, cfg.CensorRune(), log)
	switch {
	case err == nil:
		opts = append(opts, relay.WithCensor(filter))
	case !errors.Is(err, moderation.ErrNoWords):
		return nil, fmt.Errorf("build moderation filter: %w", err)
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("process stats unavailable", "error", err)
	}

	a := &App{
		cfg:        cfg,
		log:        log,
		io:         io,
		manager:    manager,
		dispatcher: relay.NewDispatcher(manager, log, opts...),
		proc:       proc,
		started:    time.Now(),
	}
	io.OnConnect(a.bind)
	return a, nil
}

// Manager exposes the membership state.
func (a *App) Manager() *relay.Manager {
	return a.manager
}

// Handler returns the HTTP routes of the relay.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(socketio.Path, a.io)
	mux.HandleFunc("GET /health", a.health)
	mux.HandleFunc("GET /stats", a.stats)
	mux.HandleFunc("GET /{$}", a.index)
	return mux
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.log.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("relay listening", "addr", ln.Addr().String(), "defaultRoom", a.cfg.DefaultRoom)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("relay shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown.
	closeErr := a.Close(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(closeErr, fmt.Errorf("shutdown: %w", err))
	}
	return closeErr
}

// Close disconnects every client and waits until their sessions are gone
// or ctx is done.
func (a *App) Close(ctx context.Context) error {
	return a.io.Close(ctx)
}

func (a *App) bind(socket *socketio.Socket) {
	id := socket.ID()

	socket.On(relay.EventLogin, func(args []json.RawMessage) {
		a.dispatcher.Login(id, lo.FirstOrEmpty(args))
	})
	socket.On(relay.EventChat, func(args []json.RawMessage) {
		a.dispatcher.Chat(id, lo.FirstOrEmpty(args))
	})
	socket.On(relay.EventMove, func(args []json.RawMessage) {
		a.dispatcher.Move(id, lo.FirstOrEmpty(args))
	})

	session := a.manager.Connect(id)
	a.log.Info("client connected", "connId", id, "nickname", session.Nickname, "room", session.RoomID)

	// Registered after Connect: a socket that is already gone runs this at once.
	socket.OnDisconnect(func(reason string) {
		a.manager.Disconnect(id)
		a.log.Info("client disconnected", "connId", id, "reason", reason)
	})
}

func (a *App) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type statsResponse struct {
	Rooms          int     `json:"rooms"`
	TransportRooms int     `json:"transport_rooms"`
	Sessions       int     `json:"sessions"`
	Sockets        int     `json:"sockets"`
	Goroutines     int     `json:"goroutines"`
	UptimeSeconds  int64   `json:"uptime_seconds"`
	RSSBytes       uint64  `json:"rss_bytes,omitempty"`
	CPUPercent     float64 `json:"cpu_percent,omitempty"`
}

func (a *App) stats(w http.ResponseWriter, _ *http.Request) {
	rooms, sessions := a.manager.Stats()
	resp := statsResponse{
		Rooms:          rooms,
		TransportRooms: a.io.Rooms(),
		Sessions:       sessions,
		Sockets:        a.io.Len(),
		Goroutines:     runtime.NumGoroutine(),
		UptimeSeconds:  int64(time.Since(a.started).Seconds()),
	}

	if a.proc != nil {
		if mem, err := a.proc.MemoryInfo(); err == nil {
			resp.RSSBytes = mem.RSS
		} else {
			a.log.Debug("memory stats failed", "error", err)
		}
		if cpu, err := a.proc.CPUPercent(); err == nil {
			resp.CPUPercent = cpu
		}
	}

	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
