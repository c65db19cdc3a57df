package relay

//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=../mocks/mock_transport.go -package=mocks

// Transport delivers outbound events and routes room broadcasts.
type Transport interface {
	// Join starts routing broadcasts for room to the connection.
	Join(connID, room string)
	// Leave stops routing broadcasts for room to the connection.
	Leave(connID, room string)
	// Broadcast sends an event to every connection routed to room.
	Broadcast(room, event string, payload any) error
	// Send sends an event to one connection.
	Send(connID, event string, payload any) error
}

// Scope says who receives a Notice.
type Scope int

const (
	ScopeRoom Scope = iota
	ScopePrivate
)

func (s Scope) String() string {
	switch s {
	case ScopeRoom:
		return "room"
	case ScopePrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Notice is one outbound event. Target is a room ID for ScopeRoom and a
// connection ID for ScopePrivate.
type Notice struct {
	Scope   Scope
	Target  string
	Event   string
	Payload any
}

func roomNotice(room, event string, payload any) Notice {
	return Notice{Scope: ScopeRoom, Target: room, Event: event, Payload: payload}
}

func privateNotice(connID, event string, payload any) Notice {
	return Notice{Scope: ScopePrivate, Target: connID, Event: event, Payload: payload}
}
