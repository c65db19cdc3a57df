package engineio

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	outgoingBacklog = 256
)

// Session is one Engine.IO connection. Message and close handlers both run
// on the read goroutine: every message handed to the message handler is
// handled before the close handlers see the session go.
type Session struct {
	id        string
	conn      *websocket.Conn
	server    *Server
	outgoing  chan *Packet
	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}

	mu        sync.Mutex
	reason    string
	finished  bool
	pingTimer *time.Timer
	pongTimer *time.Timer
	onMessage func([]byte)
	onClose   []func(string)
}

// NewSession wraps an upgraded connection
func NewSession(id string, conn *websocket.Conn, server *Server) *Session {
	return &Session{
		id:       id,
		conn:     conn,
		server:   server,
		outgoing: make(chan *Packet, outgoingBacklog),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// ID returns the session ID
func (s *Session) ID() string {
	return s.id
}

// Start runs the read and write loops and arms the first ping
func (s *Session) Start() {
	go s.writeLoop()
	go s.readLoop()
	s.schedulePing()
}

// Send queues a packet for the client without blocking. A full queue means
// the client stopped reading; the session is then closed in the background.
func (s *Session) Send(packet *Packet) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	select {
	case s.outgoing <- packet:
		return nil
	case <-s.closed:
		return ErrSessionClosed
	default:
		go s.Close("slow client")
		return ErrSlowClient
	}
}

// Close shuts the connection down. Only the first reason is kept; the close
// handlers receive it once the read goroutine has stopped.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.reason = reason
		if s.pingTimer != nil {
			s.pingTimer.Stop()
		}
		if s.pongTimer != nil {
			s.pongTimer.Stop()
		}
		close(s.closed)
		s.mu.Unlock()

		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
			time.Now().Add(writeWait))
		_ = s.conn.Close()
	})
}

// Done is closed after the close handlers have returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// OnMessage sets the message handler
func (s *Session) OnMessage(fn func([]byte)) {
	s.mu.Lock()
	s.onMessage = fn
	s.mu.Unlock()
}

// OnClose adds a close handler. Registering after the handlers have run
// calls fn immediately.
func (s *Session) OnClose(fn func(string)) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		fn("already closed")
		return
	}
	s.onClose = append(s.onClose, fn)
	s.mu.Unlock()
}

func (s *Session) readLoop() {
	defer s.finish()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			reason := "transport close"
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.server.log.Debug("engine read error", "sid", s.id, "error", err)
				reason = "transport error"
			}
			s.Close(reason)
			return
		}

		select {
		case <-s.closed:
			return
		default:
		}

		packet, err := DecodePacket(data)
		if err != nil {
			s.server.log.Debug("dropping malformed engine packet", "sid", s.id, "error", err)
			continue
		}

		if !s.handlePacket(packet) {
			s.Close("transport close")
			return
		}
	}
}

// finish runs the close handlers once the read loop is over.
func (s *Session) finish() {
	s.Close("transport close")

	s.mu.Lock()
	s.finished = true
	reason := s.reason
	handlers := s.onClose
	s.onClose = nil
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(reason)
	}
	close(s.done)
}

func (s *Session) writeLoop() {
	for {
		select {
		case packet := <-s.outgoing:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, packet.Encode()); err != nil {
				s.server.log.Debug("engine write error", "sid", s.id, "error", err)
				s.Close("transport error")
				return
			}
		case <-s.closed:
			return
		}
	}
}

// handlePacket returns false when the client asked to close the session.
func (s *Session) handlePacket(packet *Packet) bool {
	switch packet.Type {
	case PacketTypePing:
		_ = s.Send(&Packet{Type: PacketTypePong, Data: packet.Data})
	case PacketTypePong:
		s.handlePong()
	case PacketTypeMessage:
		s.handleMessage(packet.Data)
	case PacketTypeClose:
		return false
	default:
		s.server.log.Debug("ignoring engine packet", "sid", s.id, "type", packet.Type.String())
	}
	return true
}

func (s *Session) handlePong() {
	s.mu.Lock()
	if s.pongTimer != nil {
		s.pongTimer.Stop()
	}
	s.mu.Unlock()
	s.schedulePing()
}

func (s *Session) handleMessage(data []byte) {
	s.mu.Lock()
	handler := s.onMessage
	s.mu.Unlock()

	if handler != nil {
		handler(data)
	}
}

func (s *Session) schedulePing() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closed:
		return
	default:
	}

	s.pingTimer = time.AfterFunc(s.server.config.PingInterval, func() {
		if err := s.Send(&Packet{Type: PacketTypePing}); err != nil {
			return
		}
		s.schedulePongTimeout()
	})
}

func (s *Session) schedulePongTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closed:
		return
	default:
	}

	s.pongTimer = time.AfterFunc(s.server.config.PingTimeout, func() {
		s.Close("ping timeout")
	})
}
