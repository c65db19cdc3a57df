package socketio

import (
	"encoding/json"
	"sync"

	"github.com/ramory-l/roomrelay/engineio"
)

// session is the slice of an Engine.IO session a Socket depends on
type session interface {
	ID() string
	Send(packet *engineio.Packet) error
	Close(reason string)
	OnMessage(fn func([]byte))
	OnClose(fn func(string))
}

// EventHandler handles the raw JSON arguments of an inbound event
type EventHandler func(args []json.RawMessage)

// Socket represents a client connected to the default namespace
type Socket struct {
	id           string
	session      session
	server       *Server
	handlersMu   sync.RWMutex
	handlers     map[string][]EventHandler
	disconnectMu sync.Mutex
	onDisconnect []func(string)
	disconnected bool
}

func newSocket(id string, session session, server *Server) *Socket {
	return &Socket{
		id:       id,
		session:  session,
		server:   server,
		handlers: make(map[string][]EventHandler),
	}
}

// ID returns the socket ID
func (s *Socket) ID() string {
	return s.id
}

// Emit sends an event to this client only
func (s *Socket) Emit(event string, data ...any) error {
	return s.sendPacket(NewEvent(event, data...))
}

// On registers an event handler. Handlers run on the connection's read
// goroutine, so events from one client are handled in arrival order.
func (s *Socket) On(event string, handler EventHandler) {
	s.handlersMu.Lock()
	s.handlers[event] = append(s.handlers[event], handler)
	s.handlersMu.Unlock()
}

// OnDisconnect registers a disconnect handler. Each handler runs exactly
// once, immediately if the socket is already gone.
func (s *Socket) OnDisconnect(handler func(string)) {
	s.disconnectMu.Lock()
	if s.disconnected {
		s.disconnectMu.Unlock()
		handler("already disconnected")
		return
	}
	s.onDisconnect = append(s.onDisconnect, handler)
	s.disconnectMu.Unlock()
}

func (s *Socket) sendPacket(packet *Packet) error {
	encoded, err := packet.Encode()
	if err != nil {
		return err
	}

	return s.session.Send(engineio.NewMessage(encoded))
}

func (s *Socket) handleMessage(data []byte) {
	packet, err := DecodePacket(string(data))
	if err != nil {
		s.server.log.Debug("dropping malformed packet", "connId", s.id, "error", err)
		return
	}
	if packet.Namespace != DefaultNamespace {
		return
	}

	switch packet.Type {
	case PacketTypeEvent:
		s.handleEvent(packet)
	case PacketTypeDisconnect:
		s.session.Close("client namespace disconnect")
	default:
		s.server.log.Debug("ignoring unsupported packet", "connId", s.id, "type", packet.Type.String())
	}
}

func (s *Socket) handleEvent(packet *Packet) {
	if s.isDisconnected() {
		s.server.log.Debug("dropping event after disconnect", "connId", s.id)
		return
	}

	event, args, err := packet.Event()
	if err != nil {
		s.server.log.Debug("dropping malformed event", "connId", s.id, "error", err)
		return
	}

	s.handlersMu.RLock()
	handlers := s.handlers[event]
	s.handlersMu.RUnlock()

	if len(handlers) == 0 {
		s.server.log.Debug("no handler for event", "connId", s.id, "event", event)
		return
	}

	for _, handler := range handlers {
		handler(args)
	}
}

func (s *Socket) isDisconnected() bool {
	s.disconnectMu.Lock()
	defer s.disconnectMu.Unlock()
	return s.disconnected
}

func (s *Socket) handleClose(reason string) {
	s.server.removeSocket(s.id)

	s.disconnectMu.Lock()
	if s.disconnected {
		s.disconnectMu.Unlock()
		return
	}
	s.disconnected = true
	handlers := s.onDisconnect
	s.onDisconnect = nil
	s.disconnectMu.Unlock()

	for _, handler := range handlers {
		handler(reason)
	}
}
