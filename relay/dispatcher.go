package relay

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Censor rewrites chat text before it is broadcast.
type Censor interface {
	Censor(text string) string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithCensor runs every broadcast chat message through c.
func WithCensor(c Censor) DispatcherOption {
	return func(d *Dispatcher) {
		d.censor = c
	}
}

// Dispatcher routes inbound events to the Manager, the command handlers or a
// room broadcast.
type Dispatcher struct {
	manager *Manager
	censor  Censor
	log     *slog.Logger
}

// NewDispatcher returns a Dispatcher backed by manager.
func NewDispatcher(manager *Manager, log *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{manager: manager, log: log}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Login handles a login event. A payload that does not decode is treated as
// empty, so the defaults apply.
func (d *Dispatcher) Login(connID string, payload json.RawMessage) {
	var p LoginPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			d.log.Debug("malformed login payload", "connId", connID, "error", err)
			p = LoginPayload{}
		}
	}
	d.manager.Join(connID, p.Nickname, p.RoomID)
}

// Chat handles a chat event. Anything other than a JSON string is dropped.
func (d *Dispatcher) Chat(connID string, payload json.RawMessage) {
	var message string
	if err := json.Unmarshal(payload, &message); err != nil {
		d.log.Debug("dropping non-string chat", "connId", connID, "error", err)
		return
	}
	d.OnChat(connID, message)
}

// OnChat handles a decoded chat message.
func (d *Dispatcher) OnChat(connID, message string) {
	opts := d.manager.Options()

	var cmd Command
	if strings.HasPrefix(message, CommandPrefix) {
		cmd = ParseCommand(message, opts.MaxNicknameLength)
	} else {
		message = clip(message, opts.MaxMessageLength)
		if d.censor != nil {
			message = d.censor.Censor(message)
		}
	}

	handled := d.manager.withSession(connID, func(s *Session, dir Directory) []Notice {
		if cmd != nil {
			return cmd.Execute(*s, dir)
		}
		return []Notice{roomNotice(s.RoomID, EventChat, ChatMessage{ID: s.ID, Nickname: s.Nickname, Message: message})}
	})
	if !handled {
		d.log.Debug("dropping chat without session", "connId", connID)
	}
}

// Move relays a position update to the sender's room.
func (d *Dispatcher) Move(connID string, position json.RawMessage) {
	handled := d.manager.withSession(connID, func(s *Session, _ Directory) []Notice {
		return []Notice{roomNotice(s.RoomID, EventMove, Movement{ID: s.ID, Position: position})}
	})
	if !handled {
		d.log.Debug("dropping move without session", "connId", connID)
	}
}
