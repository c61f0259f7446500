package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeLockerStateChanged    MessageType = "locker.state_changed"
	TypeLockerPasswordChanged MessageType = "locker.password_changed"
	TypeLockersReset          MessageType = "lockers.reset"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypeSubscribeAck MessageType = "subscribe.ack"
	TypePong         MessageType = "pong"
	TypeError        MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// inbound is a client command before its payload is decoded.
type inbound struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LockerStatePayload is the payload for locker.state_changed events.
type LockerStatePayload struct {
	LockerID  int       `json:"locker_id"`
	State     string    `json:"state"`
	ChangedAt time.Time `json:"changed_at"`
}

// LockerPasswordPayload is the payload for locker.password_changed events.
// The passcode itself is never sent.
type LockerPasswordPayload struct {
	LockerID  int       `json:"locker_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// SubscribePayload is the payload of subscribe and unsubscribe commands.
type SubscribePayload struct {
	LockerIDs []int `json:"locker_ids"`
}

// SubscribeAckPayload reports the client's subscriptions after a command.
type SubscribeAckPayload struct {
	LockerIDs []int `json:"locker_ids"`
	All       bool  `json:"all"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
