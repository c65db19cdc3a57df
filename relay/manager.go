package relay

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Defaults for Options fields left zero.
const (
	DefaultRoom              = "lobby"
	DefaultMaxNicknameLength = 35
	DefaultMaxMessageLength  = 400

	guestPrefix = "Guest-"
	guestIDLen  = 6
)

// Options tunes a Manager.
type Options struct {
	DefaultRoom       string
	MaxNicknameLength int
	MaxMessageLength  int
}

func (o Options) withDefaults() Options {
	if o.DefaultRoom == "" {
		o.DefaultRoom = DefaultRoom
	}
	if o.MaxNicknameLength <= 0 {
		o.MaxNicknameLength = DefaultMaxNicknameLength
	}
	if o.MaxMessageLength <= 0 {
		o.MaxMessageLength = DefaultMaxMessageLength
	}
	return o
}

// Manager owns every Session and every room. All methods are safe for
// concurrent use; each one applies its state change and delivers the
// resulting notices before returning.
type Manager struct {
	mu        sync.Mutex
	sessions  *registry
	rooms     *roomIndex
	transport Transport
	opts      Options
	log       *slog.Logger
}

// NewManager returns a Manager that delivers notices through transport.
func NewManager(transport Transport, opts Options, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		sessions:  newRegistry(),
		rooms:     newRoomIndex(),
		transport: transport,
		opts:      opts.withDefaults(),
		log:       log,
	}
}

// DefaultNickname is the nickname given to a connection before it logs in.
func DefaultNickname(connID string) string {
	if len(connID) > guestIDLen {
		connID = connID[:guestIDLen]
	}
	return guestPrefix + connID
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.opts
}

// Connect places a new connection in the default room under its default
// nickname.
func (m *Manager) Connect(connID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, notices := m.joinLocked(connID, "", "")
	m.deliver(notices)
	return *s
}

// Join moves the connection to roomID, creating its session if needed. An
// empty nickname keeps the current one; an empty roomID means the default
// room.
func (m *Manager) Join(connID, nickname, roomID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, notices := m.joinLocked(connID, nickname, roomID)
	m.deliver(notices)
	return *s
}

// Rename changes the nickname of connID. It does nothing for an unknown
// connection or a nickname that is empty after trimming.
func (m *Manager) Rename(connID, nickname string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deliver(m.renameLocked(connID, nickname))
}

// Disconnect removes the connection's session. Repeated calls are no-ops.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.get(connID)
	if !ok {
		return
	}
	m.leaveLocked(s)
	m.sessions.remove(connID)
	m.log.Debug("session removed", "connId", connID, "nickname", s.Nickname, "room", s.RoomID)

	m.deliver([]Notice{roomNotice(s.RoomID, EventUserLeft, Presence{ID: s.ID, Nickname: s.Nickname})})
}

// Members returns the nicknames in roomID in the order they joined.
func (m *Manager) Members(roomID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.membersLocked(roomID)
}

// Session returns a copy of the session for connID.
func (m *Manager) Session(connID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.get(connID)
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// RoomExists reports whether roomID has at least one member.
func (m *Manager) RoomExists(roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.rooms.exists(roomID)
}

// MemberCount returns the number of members in roomID.
func (m *Manager) MemberCount(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.rooms.count(roomID)
}

// Stats returns the number of live rooms and sessions.
func (m *Manager) Stats() (rooms, sessions int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.rooms.len(), m.sessions.len()
}

// withSession runs fn against the session for connID and delivers what it
// returns. It reports false, without calling fn, for an unknown connection.
func (m *Manager) withSession(connID string, fn func(s *Session, dir Directory) []Notice) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.get(connID)
	if !ok {
		return false
	}
	m.deliver(fn(s, lockedDirectory{m}))
	return true
}

func (m *Manager) joinLocked(connID, nickname, roomID string) (*Session, []Notice) {
	nickname = cleanNickname(nickname, m.opts.MaxNicknameLength)
	if strings.TrimSpace(roomID) == "" {
		roomID = m.opts.DefaultRoom
	}

	var notices []Notice
	s, ok := m.sessions.get(connID)
	if ok {
		if s.RoomID != roomID {
			m.leaveLocked(s)
			notices = append(notices, roomNotice(s.RoomID, EventUserLeft, Presence{ID: s.ID, Nickname: s.Nickname}))
		}
		if nickname != "" {
			s.Nickname = nickname
		}
	} else {
		if nickname == "" {
			nickname = cleanNickname(DefaultNickname(connID), m.opts.MaxNicknameLength)
		}
		s = &Session{ID: connID, Nickname: nickname}
		m.sessions.put(s)
	}

	s.RoomID = roomID
	m.rooms.add(roomID, connID)
	m.transport.Join(connID, roomID)
	m.log.Debug("session joined", "connId", connID, "nickname", s.Nickname, "room", roomID)

	notices = append(notices, roomNotice(roomID, EventUserJoined, Presence{ID: s.ID, Nickname: s.Nickname}))
	return s, notices
}

func (m *Manager) leaveLocked(s *Session) {
	m.rooms.remove(s.RoomID, s.ID)
	m.transport.Leave(s.ID, s.RoomID)
	if m.rooms.reap(s.RoomID) {
		m.log.Debug("room removed", "room", s.RoomID)
	}
}

func (m *Manager) renameLocked(connID, nickname string) []Notice {
	s, ok := m.sessions.get(connID)
	if !ok {
		return nil
	}
	nickname = cleanNickname(nickname, m.opts.MaxNicknameLength)
	if nickname == "" {
		return nil
	}

	previous := s.Nickname
	s.Nickname = nickname
	m.log.Debug("session renamed", "connId", connID, "from", previous, "to", nickname)

	return []Notice{
		roomNotice(s.RoomID, EventNameChanged, NameChange{ID: s.ID, OldNickname: previous, NewNickname: nickname}),
		roomNotice(s.RoomID, EventChat, systemMessage(fmt.Sprintf("%s is now known as %s", previous, nickname))),
	}
}

func (m *Manager) membersLocked(roomID string) []string {
	ids := m.rooms.members(roomID)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.sessions.get(id); ok {
			names = append(names, s.Nickname)
		}
	}
	return names
}

// deliver hands notices to the transport in order. A failed delivery only
// affects its recipients and is logged.
func (m *Manager) deliver(notices []Notice) {
	for _, n := range notices {
		var err error
		switch n.Scope {
		case ScopeRoom:
			err = m.transport.Broadcast(n.Target, n.Event, n.Payload)
		case ScopePrivate:
			err = m.transport.Send(n.Target, n.Event, n.Payload)
		}
		if err != nil {
			m.log.Debug("notice not delivered", "scope", n.Scope, "target", n.Target, "event", n.Event, "error", err)
		}
	}
}

// lockedDirectory serves commands while Manager.mu is already held.
type lockedDirectory struct {
	m *Manager
}

func (d lockedDirectory) Members(roomID string) []string {
	return d.m.membersLocked(roomID)
}

func (d lockedDirectory) Rename(connID, nickname string) []Notice {
	return d.m.renameLocked(connID, nickname)
}
