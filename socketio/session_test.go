package socketio

import (
	"io"
	"log/slog"
	"sync"

	"github.com/ramory-l/roomrelay/engineio"
)

// fakeSession stands in for an Engine.IO session and records what is sent.
type fakeSession struct {
	id string

	mu        sync.Mutex
	sent      []string
	sendErr   error
	closed    bool
	reason    string
	onMessage func([]byte)
	onClose   []func(string)
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id}
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Send(packet *engineio.Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return engineio.ErrSessionClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, string(packet.Data))
	return nil
}

func (f *fakeSession) Close(reason string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.reason = reason
	handlers := f.onClose
	f.mu.Unlock()

	for _, h := range handlers {
		h(reason)
	}
}

func (f *fakeSession) OnMessage(fn func([]byte)) {
	f.mu.Lock()
	f.onMessage = fn
	f.mu.Unlock()
}

func (f *fakeSession) OnClose(fn func(string)) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		fn("already closed")
		return
	}
	f.onClose = append(f.onClose, fn)
	f.mu.Unlock()
}

// deliver feeds a Socket.IO frame as if the client had sent it.
func (f *fakeSession) deliver(frame string) {
	f.mu.Lock()
	handler := f.onMessage
	f.mu.Unlock()
	if handler != nil {
		handler([]byte(frame))
	}
}

func (f *fakeSession) frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeSession) setSendErr(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func newTestServer() *Server {
	return NewServer(&Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

// connect runs the CONNECT handshake for a fake session and returns the
// resulting socket.
func connect(s *Server, sess *fakeSession) *Socket {
	var socket *Socket
	prev := s.onConnect
	s.OnConnect(func(sock *Socket) { socket = sock })
	s.handleConnection(sess)
	sess.deliver("40")
	s.OnConnect(prev)
	return socket
}
