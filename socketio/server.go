package socketio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramory-l/roomrelay/engineio"
)

// ErrUnknownSocket is returned when addressing a socket that is not connected.
var ErrUnknownSocket = errors.New("unknown socket")

// Path is the HTTP path prefix the server answers on.
const Path = "/socket.io/"

// Server represents a Socket.IO server
type Server struct {
	eio       *engineio.Server
	adapter   Adapter
	mu        sync.RWMutex
	sockets   map[string]*Socket
	onConnect func(*Socket)
	log       *slog.Logger
}

// Config represents Socket.IO server configuration
type Config struct {
	PingInterval   time.Duration
	PingTimeout    time.Duration
	MaxPayload     int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewServer creates a new Socket.IO server
func NewServer(config *Config) *Server {
	var eioConfig *engineio.Config
	log := slog.Default()
	if config != nil {
		if config.Logger != nil {
			log = config.Logger
		}
		eioConfig = &engineio.Config{
			PingInterval:   config.PingInterval,
			PingTimeout:    config.PingTimeout,
			MaxPayload:     config.MaxPayload,
			AllowedOrigins: config.AllowedOrigins,
			Logger:         log,
		}
	}

	server := &Server{
		eio:     engineio.NewServer(eioConfig),
		sockets: make(map[string]*Socket),
		log:     log,
	}
	server.adapter = NewMemoryAdapter(server)

	server.eio.OnConnect(func(sess *engineio.Session) {
		server.handleConnection(sess)
	})

	return server
}

// OnConnect sets the handler invoked once a client joined the default
// namespace. Handlers registered on the socket inside it see every event.
func (s *Server) OnConnect(handler func(*Socket)) {
	s.onConnect = handler
}

// To returns a BroadcastOperator targeting the given rooms
func (s *Server) To(rooms ...string) *BroadcastOperator {
	return &BroadcastOperator{
		adapter: s.adapter,
		rooms:   rooms,
	}
}

// Join routes broadcasts for room to the socket
func (s *Server) Join(socketID, room string) {
	s.adapter.Add(socketID, room)
}

// Leave stops routing broadcasts for room to the socket
func (s *Server) Leave(socketID, room string) {
	s.adapter.Remove(socketID, room)
}

// Broadcast emits an event with a single payload to every socket in room
func (s *Server) Broadcast(room, event string, payload any) error {
	return s.To(room).Emit(event, payload)
}

// Send emits an event with a single payload to one socket
func (s *Server) Send(socketID, event string, payload any) error {
	socket, ok := s.socket(socketID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSocket, socketID)
	}
	return socket.Emit(event, payload)
}

// Len returns the number of connected sockets
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sockets)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, Path) {
		http.NotFound(w, r)
		return
	}

	s.eio.ServeHTTP(w, r)
}

// Rooms returns the number of rooms with at least one socket routed to them
func (s *Server) Rooms() int {
	return s.adapter.Rooms()
}

// Close disconnects every client and waits for their disconnect handlers
// until ctx is done.
func (s *Server) Close(ctx context.Context) error {
	err := s.eio.Close(ctx)
	return errors.Join(err, s.adapter.Close())
}

func (s *Server) socket(id string) (*Socket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	socket, ok := s.sockets[id]
	return socket, ok
}

// handleConnection waits for the client's CONNECT packet before creating the
// socket, as Socket.IO v4 clients always send one after the Engine.IO open.
func (s *Server) handleConnection(sess session) {
	var once sync.Once
	sess.OnMessage(func(data []byte) {
		packet, err := DecodePacket(string(data))
		if err != nil || packet.Type != PacketTypeConnect {
			return
		}

		if packet.Namespace != DefaultNamespace {
			s.rejectNamespace(sess, packet.Namespace)
			return
		}

		once.Do(func() { s.addSocket(sess) })
	})
}

func (s *Server) addSocket(sess session) *Socket {
	socket := newSocket(uuid.NewString(), sess, s)

	s.mu.Lock()
	s.sockets[socket.id] = socket
	s.mu.Unlock()

	sess.OnMessage(socket.handleMessage)
	sess.OnClose(socket.handleClose)

	if err := socket.sendPacket(&Packet{
		Type:      PacketTypeConnect,
		Namespace: DefaultNamespace,
		Data:      map[string]string{"sid": socket.id},
	}); err != nil {
		s.log.Debug("connect reply failed", "connId", socket.id, "error", err)
	}

	s.log.Debug("socket connected", "connId", socket.id, "sid", sess.ID())

	if s.onConnect != nil {
		s.onConnect(socket)
	}

	return socket
}

func (s *Server) rejectNamespace(sess session, namespace string) {
	packet := &Packet{
		Type:      PacketTypeConnectError,
		Namespace: namespace,
		Data:      map[string]string{"message": "Invalid namespace"},
	}
	encoded, err := packet.Encode()
	if err != nil {
		return
	}
	_ = sess.Send(engineio.NewMessage(encoded))
}

func (s *Server) removeSocket(id string) {
	s.mu.Lock()
	delete(s.sockets, id)
	s.mu.Unlock()

	s.adapter.RemoveAll(id)
}
