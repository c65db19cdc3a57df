package socketio

// Adapter manages room routing and broadcasting for a Server
type Adapter interface {
	// Add adds a socket to a room
	Add(socketID, room string)

	// Remove removes a socket from a room
	Remove(socketID, room string)

	// RemoveAll removes a socket from all rooms
	RemoveAll(socketID string)

	// Rooms returns the number of rooms with at least one socket
	Rooms() int

	// Broadcast sends a packet once to every socket in any of the rooms
	Broadcast(packet *Packet, rooms []string) error

	// Close cleans up the adapter
	Close() error
}
