package relay

import (
	"io"
	"log/slog"
	"sync"
)

type delivery struct {
	scope   Scope
	target  string
	event   string
	payload any
}

// recordingTransport keeps routes and deliveries in memory.
type recordingTransport struct {
	mu         sync.Mutex
	routes     map[string]map[string]struct{}
	deliveries []delivery
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{routes: make(map[string]map[string]struct{})}
}

func (r *recordingTransport) Join(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.routes[room] == nil {
		r.routes[room] = make(map[string]struct{})
	}
	r.routes[room][connID] = struct{}{}
}

func (r *recordingTransport) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.routes[room], connID)
	if len(r.routes[room]) == 0 {
		delete(r.routes, room)
	}
}

func (r *recordingTransport) Broadcast(room, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{scope: ScopeRoom, target: room, event: event, payload: payload})
	return nil
}

func (r *recordingTransport) Send(connID, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{scope: ScopePrivate, target: connID, event: event, payload: payload})
	return nil
}

func (r *recordingTransport) routed(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.routes[room][connID]
	return ok
}

func (r *recordingTransport) all() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

func (r *recordingTransport) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager() (*Manager, *recordingTransport) {
	transport := newRecordingTransport()
	return NewManager(transport, Options{}, discardLogger()), transport
}
