package socketio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PacketType represents Socket.IO packet types
type PacketType int

const (
	PacketTypeConnect PacketType = iota
	PacketTypeDisconnect
	PacketTypeEvent
	PacketTypeAck
	PacketTypeConnectError
	PacketTypeBinaryEvent
	PacketTypeBinaryAck
)

// DefaultNamespace is the only namespace served.
const DefaultNamespace = "/"

var (
	ErrEmptyPacket       = errors.New("empty packet")
	ErrInvalidPacketType = errors.New("invalid packet type")
	ErrNotEvent          = errors.New("packet is not an event")
)

// Packet represents a Socket.IO packet. Data holds any JSON-encodable value
// when sending; decoded packets carry the raw JSON as a json.RawMessage.
type Packet struct {
	Type      PacketType
	Namespace string
	Data      any
	ID        *int
}

// NewEvent builds an event packet for the default namespace
func NewEvent(event string, args ...any) *Packet {
	data := make([]any, 0, len(args)+1)
	data = append(data, event)
	data = append(data, args...)

	return &Packet{
		Type:      PacketTypeEvent,
		Namespace: DefaultNamespace,
		Data:      data,
	}
}

// Encode encodes a Socket.IO packet to string
func (p *Packet) Encode() (string, error) {
	var builder strings.Builder

	builder.WriteString(strconv.Itoa(int(p.Type)))

	if p.Namespace != "" && p.Namespace != DefaultNamespace {
		builder.WriteString(p.Namespace)
		builder.WriteByte(',')
	}

	if p.ID != nil {
		builder.WriteString(strconv.Itoa(*p.ID))
	}

	if p.Data != nil {
		jsonData, err := json.Marshal(p.Data)
		if err != nil {
			return "", fmt.Errorf("marshal packet data: %w", err)
		}
		builder.Write(jsonData)
	}

	return builder.String(), nil
}

// Event splits an event packet into its name and raw arguments
func (p *Packet) Event() (string, []json.RawMessage, error) {
	if p.Type != PacketTypeEvent {
		return "", nil, fmt.Errorf("%w: %s", ErrNotEvent, p.Type)
	}

	raw, ok := p.Data.(json.RawMessage)
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrNotEvent)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return "", nil, fmt.Errorf("%w: payload is not a non-empty array", ErrNotEvent)
	}

	var name string
	if err := json.Unmarshal(items[0], &name); err != nil {
		return "", nil, fmt.Errorf("%w: event name is not a string", ErrNotEvent)
	}

	return name, items[1:], nil
}

// DecodePacket decodes a Socket.IO packet from string
func DecodePacket(data string) (*Packet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPacket
	}

	packet := &Packet{
		Namespace: DefaultNamespace,
	}

	pos := 0

	if data[pos] < '0' || data[pos] > '6' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPacketType, data[pos])
	}
	packet.Type = PacketType(data[pos] - '0')
	pos++

	if pos >= len(data) {
		return packet, nil
	}

	if data[pos] == '/' {
		end := strings.IndexByte(data[pos:], ',')
		if end == -1 {
			packet.Namespace = data[pos:]
			return packet, nil
		}
		packet.Namespace = data[pos : pos+end]
		pos += end + 1
	}

	if pos >= len(data) {
		return packet, nil
	}

	if data[pos] >= '0' && data[pos] <= '9' {
		end := pos
		for end < len(data) && data[end] >= '0' && data[end] <= '9' {
			end++
		}
		id, err := strconv.Atoi(data[pos:end])
		if err != nil {
			return nil, fmt.Errorf("invalid ack id: %w", err)
		}
		packet.ID = &id
		pos = end
	}

	if pos >= len(data) {
		return packet, nil
	}

	payload := json.RawMessage(data[pos:])
	if !json.Valid(payload) {
		return nil, fmt.Errorf("invalid packet payload: %q", data[pos:])
	}
	packet.Data = payload

	return packet, nil
}

// String returns the packet type as a string
func (pt PacketType) String() string {
	switch pt {
	case PacketTypeConnect:
		return "connect"
	case PacketTypeDisconnect:
		return "disconnect"
	case PacketTypeEvent:
		return "event"
	case PacketTypeAck:
		return "ack"
	case PacketTypeConnectError:
		return "connect_error"
	case PacketTypeBinaryEvent:
		return "binary_event"
	case PacketTypeBinaryAck:
		return "binary_ack"
	default:
		return "unknown"
	}
}
