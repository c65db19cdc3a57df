package relay

import "encoding/json"

// Wire event names.
const (
	EventLogin       = "login"
	EventChat        = "chat"
	EventMove        = "move"
	EventUserJoined  = "userJoined"
	EventUserLeft    = "userLeft"
	EventNameChanged = "nameChanged"
)

// Sender identity of synthetic chat notices.
const (
	SystemID       = "system"
	SystemNickname = "System"
)

// CommandPrefix marks a chat message as a command.
const CommandPrefix = "/"

// LoginPayload is the body of an inbound login event.
type LoginPayload struct {
	Nickname string `json:"nickname"`
	RoomID   string `json:"roomId"`
}

// Presence is sent with userJoined and userLeft.
type Presence struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// NameChange is sent with nameChanged.
type NameChange struct {
	ID          string `json:"id"`
	OldNickname string `json:"oldNickname"`
	NewNickname string `json:"newNickname"`
}

// ChatMessage is sent with chat, both for user messages and system notices.
type ChatMessage struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

// Movement is sent with move. Position is relayed as received.
type Movement struct {
	ID       string          `json:"id"`
	Position json.RawMessage `json:"position"`
}

func systemMessage(message string) ChatMessage {
	return ChatMessage{ID: SystemID, Nickname: SystemNickname, Message: message}
}
