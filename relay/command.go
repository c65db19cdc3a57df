package relay

import (
	"fmt"
	"strings"
)

const helpText = "Available commands: /name <nickname> changes your nickname, " +
	"/users lists who is in this room, /help shows this message."

// Directory is the view of membership state a command may use. Commands run
// while the Manager holds its lock, so implementations must not lock again.
type Directory interface {
	// Members returns the nicknames in roomID in membership order.
	Members(roomID string) []string
	// Rename changes a nickname and returns the notices to deliver.
	Rename(connID, nickname string) []Notice
}

// Command is a parsed slash-command.
type Command interface {
	Execute(s Session, dir Directory) []Notice
}

// RenameCommand is "/name <nickname...>".
type RenameCommand struct {
	Nickname string
}

// HelpCommand is "/help".
type HelpCommand struct{}

// ListUsersCommand is "/users".
type ListUsersCommand struct{}

// UnknownCommand is any other keyword.
type UnknownCommand struct {
	Keyword string
}

// ParseCommand decodes a chat message that starts with CommandPrefix. The
// keyword is matched case-insensitively; a rename target is cut to
// maxNickname characters.
func ParseCommand(message string, maxNickname int) Command {
	fields := strings.Fields(strings.TrimPrefix(message, CommandPrefix))
	if len(fields) == 0 {
		return UnknownCommand{}
	}

	keyword := strings.ToLower(fields[0])
	switch keyword {
	case "name":
		return RenameCommand{Nickname: cleanNickname(strings.Join(fields[1:], " "), maxNickname)}
	case "help":
		return HelpCommand{}
	case "users":
		return ListUsersCommand{}
	default:
		return UnknownCommand{Keyword: keyword}
	}
}

func (c RenameCommand) Execute(s Session, dir Directory) []Notice {
	if c.Nickname == "" {
		return nil
	}
	return dir.Rename(s.ID, c.Nickname)
}

func (HelpCommand) Execute(s Session, _ Directory) []Notice {
	return []Notice{privateNotice(s.ID, EventChat, systemMessage(helpText))}
}

func (ListUsersCommand) Execute(s Session, dir Directory) []Notice {
	names := strings.Join(dir.Members(s.RoomID), ", ")
	return []Notice{privateNotice(s.ID, EventChat, systemMessage(names))}
}

func (c UnknownCommand) Execute(s Session, _ Directory) []Notice {
	text := fmt.Sprintf("Unknown command: /%s. Type /help for a list of commands.", c.Keyword)
	return []Notice{privateNotice(s.ID, EventChat, systemMessage(text))}
}
