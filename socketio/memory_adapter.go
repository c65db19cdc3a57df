package socketio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/ramory-l/roomrelay/engineio"
)

// socketLookup resolves a connected socket by ID
type socketLookup interface {
	socket(id string) (*Socket, bool)
}

// MemoryAdapter is an in-memory implementation of the Adapter interface
type MemoryAdapter struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]struct{} // room -> socketIDs
	socketRooms map[string]map[string]struct{} // socketID -> rooms
	sockets     socketLookup
}

// NewMemoryAdapter creates a new in-memory adapter
func NewMemoryAdapter(sockets socketLookup) *MemoryAdapter {
	return &MemoryAdapter{
		rooms:       make(map[string]map[string]struct{}),
		socketRooms: make(map[string]map[string]struct{}),
		sockets:     sockets,
	}
}

// Add adds a socket to a room
func (a *MemoryAdapter) Add(socketID, room string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rooms[room] == nil {
		a.rooms[room] = make(map[string]struct{})
	}
	a.rooms[room][socketID] = struct{}{}

	if a.socketRooms[socketID] == nil {
		a.socketRooms[socketID] = make(map[string]struct{})
	}
	a.socketRooms[socketID][room] = struct{}{}
}

// Remove removes a socket from a room
func (a *MemoryAdapter) Remove(socketID, room string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.removeLocked(socketID, room)
}

// RemoveAll removes a socket from all rooms
func (a *MemoryAdapter) RemoveAll(socketID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for room := range a.socketRooms[socketID] {
		a.removeLocked(socketID, room)
	}
	delete(a.socketRooms, socketID)
}

func (a *MemoryAdapter) removeLocked(socketID, room string) {
	if members := a.rooms[room]; members != nil {
		delete(members, socketID)
		if len(members) == 0 {
			delete(a.rooms, room)
		}
	}

	if rooms := a.socketRooms[socketID]; rooms != nil {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(a.socketRooms, socketID)
		}
	}
}

// Rooms returns the number of non-empty rooms
func (a *MemoryAdapter) Rooms() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.rooms)
}

// Broadcast encodes the packet once and queues it on every target socket.
// Queuing never blocks; sockets that cannot take the packet are reported in
// the returned error but do not stop delivery to the others.
func (a *MemoryAdapter) Broadcast(packet *Packet, rooms []string) error {
	encoded, err := packet.Encode()
	if err != nil {
		return err
	}

	var targets []string
	a.mu.RLock()
	for _, room := range rooms {
		targets = append(targets, lo.Keys(a.rooms[room])...)
	}
	a.mu.RUnlock()
	targets = lo.Uniq(targets)

	var errs []error
	for _, id := range targets {
		socket, ok := a.sockets.socket(id)
		if !ok {
			continue
		}
		if err := socket.session.Send(engineio.NewMessage(encoded)); err != nil {
			errs = append(errs, fmt.Errorf("socket %s: %w", id, err))
		}
	}

	return errors.Join(errs...)
}

// Close cleans up the adapter
func (a *MemoryAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rooms = make(map[string]map[string]struct{})
	a.socketRooms = make(map[string]map[string]struct{})

	return nil
}
