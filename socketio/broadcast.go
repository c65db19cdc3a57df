package socketio

// BroadcastOperator emits to every socket routed to a set of rooms
type BroadcastOperator struct {
	adapter Adapter
	rooms   []string
}

// To adds rooms to broadcast to
func (b *BroadcastOperator) To(rooms ...string) *BroadcastOperator {
	b.rooms = append(b.rooms, rooms...)
	return b
}

// Emit broadcasts an event. A socket in several of the rooms gets it once.
func (b *BroadcastOperator) Emit(event string, data ...any) error {
	return b.adapter.Broadcast(NewEvent(event, data...), b.rooms)
}
