package engineio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// PacketType is the leading digit of an Engine.IO v4 frame
type PacketType byte

const (
	PacketTypeOpen PacketType = iota
	PacketTypeClose
	PacketTypePing
	PacketTypePong
	PacketTypeMessage
	PacketTypeUpgrade
	PacketTypeNoop
)

var packetTypeNames = [...]string{"open", "close", "ping", "pong", "message", "upgrade", "noop"}

var (
	ErrEmptyPacket       = errors.New("empty packet")
	ErrInvalidPacketType = errors.New("invalid packet type")
)

func (pt PacketType) String() string {
	if int(pt) < len(packetTypeNames) {
		return packetTypeNames[pt]
	}
	return "unknown(" + strconv.Itoa(int(pt)) + ")"
}

// Packet is one text frame: a type digit followed by an optional payload
type Packet struct {
	Type PacketType
	Data []byte
}

// NewMessage wraps a Socket.IO payload in a message frame
func NewMessage(data string) *Packet {
	return &Packet{Type: PacketTypeMessage, Data: []byte(data)}
}

func (p *Packet) Encode() []byte {
	return append([]byte{'0' + byte(p.Type)}, p.Data...)
}

// DecodePacket parses a text frame. The payload is copied, so data may be
// reused by the caller.
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPacket
	}

	pt := PacketType(data[0] - '0')
	if data[0] < '0' || int(pt) >= len(packetTypeNames) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPacketType, data[0])
	}

	packet := &Packet{Type: pt}
	if len(data) > 1 {
		packet.Data = bytes.Clone(data[1:])
	}
	return packet, nil
}

// HandshakeData is the body of the open frame. Durations are milliseconds.
type HandshakeData struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int64    `json:"pingInterval"`
	PingTimeout  int64    `json:"pingTimeout"`
	MaxPayload   int64    `json:"maxPayload"`
}

// EncodeHandshake builds the open frame sent right after the upgrade. No
// upgrades are offered since the session already runs over WebSocket.
func EncodeHandshake(sid string, pingInterval, pingTimeout time.Duration, maxPayload int64) ([]byte, error) {
	body, err := json.Marshal(HandshakeData{
		SID:          sid,
		Upgrades:     []string{},
		PingInterval: pingInterval.Milliseconds(),
		PingTimeout:  pingTimeout.Milliseconds(),
		MaxPayload:   maxPayload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal handshake: %w", err)
	}
	return (&Packet{Type: PacketTypeOpen, Data: body}).Encode(), nil
}
