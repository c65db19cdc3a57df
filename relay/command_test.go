package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	members map[string][]string
	renamed []string
}

func (d *stubDirectory) Members(roomID string) []string {
	return d.members[roomID]
}

func (d *stubDirectory) Rename(connID, nickname string) []Notice {
	d.renamed = append(d.renamed, connID+"="+nickname)
	return []Notice{roomNotice("r1", EventNameChanged, nil)}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Command
	}{
		{name: "rename", message: "/name Bob", want: RenameCommand{Nickname: "Bob"}},
		{name: "rename joins tokens", message: "/name   Bob   the  Builder  ", want: RenameCommand{Nickname: "Bob the Builder"}},
		{name: "rename without argument", message: "/name", want: RenameCommand{}},
		{name: "keyword is case-insensitive", message: "/NaMe Bob", want: RenameCommand{Nickname: "Bob"}},
		{name: "help", message: "/help", want: HelpCommand{}},
		{name: "help ignores arguments", message: "/HELP me", want: HelpCommand{}},
		{name: "users", message: "/users", want: ListUsersCommand{}},
		{name: "unknown", message: "/dance now", want: UnknownCommand{Keyword: "dance"}},
		{name: "bare prefix", message: "/", want: UnknownCommand{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.message, DefaultMaxNicknameLength))
		})
	}
}

func TestParseCommand_TruncatesNickname(t *testing.T) {
	cmd := ParseCommand("/name abcdefghij", 4)

	assert.Equal(t, RenameCommand{Nickname: "abcd"}, cmd)
}

func TestRenameCommand_Execute(t *testing.T) {
	req := require.New(t)
	dir := &stubDirectory{}
	s := Session{ID: "c1", Nickname: "Alice", RoomID: "r1"}

	req.Nil(RenameCommand{}.Execute(s, dir))
	req.Empty(dir.renamed)

	notices := RenameCommand{Nickname: "Bob"}.Execute(s, dir)
	req.Len(notices, 1)
	req.Equal([]string{"c1=Bob"}, dir.renamed)
}

func TestHelpCommand_Execute(t *testing.T) {
	req := require.New(t)
	s := Session{ID: "c1", Nickname: "Alice", RoomID: "r1"}

	notices := HelpCommand{}.Execute(s, &stubDirectory{})

	req.Len(notices, 1)
	req.Equal(ScopePrivate, notices[0].Scope)
	req.Equal("c1", notices[0].Target)
	req.Equal(EventChat, notices[0].Event)
	msg, ok := notices[0].Payload.(ChatMessage)
	req.True(ok)
	req.Equal(SystemNickname, msg.Nickname)
	req.Contains(msg.Message, "/name")
	req.Contains(msg.Message, "/users")
	req.Contains(msg.Message, "/help")
}

func TestListUsersCommand_Execute(t *testing.T) {
	dir := &stubDirectory{members: map[string][]string{"r1": {"Alice", "Bob", "Carol"}}}
	s := Session{ID: "c2", Nickname: "Bob", RoomID: "r1"}

	notices := ListUsersCommand{}.Execute(s, dir)

	assert.Equal(t, []Notice{
		privateNotice("c2", EventChat, ChatMessage{ID: SystemID, Nickname: SystemNickname, Message: "Alice, Bob, Carol"}),
	}, notices)
}

func TestUnknownCommand_Execute(t *testing.T) {
	s := Session{ID: "c1", Nickname: "Alice", RoomID: "r1"}

	notices := UnknownCommand{Keyword: "dance"}.Execute(s, &stubDirectory{})

	assert.Equal(t, []Notice{
		privateNotice("c1", EventChat, ChatMessage{
			ID:       SystemID,
			Nickname: SystemNickname,
			Message:  "Unknown command: /dance. Type /help for a list of commands.",
		}),
	}, notices)
}
