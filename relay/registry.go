package relay

// Session is the state of one live connection.
type Session struct {
	ID       string
	Nickname string
	RoomID   string
}

// registry maps connection IDs to sessions. Callers hold Manager.mu.
type registry struct {
	sessions map[string]*Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*Session)}
}

func (r *registry) get(connID string) (*Session, bool) {
	s, ok := r.sessions[connID]
	return s, ok
}

func (r *registry) put(s *Session) {
	r.sessions[s.ID] = s
}

func (r *registry) remove(connID string) {
	delete(r.sessions, connID)
}

func (r *registry) len() int {
	return len(r.sessions)
}
