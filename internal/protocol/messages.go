// Package protocol defines the tagged events exchanged with clients over
// the signaling socket. Inbound payloads are validated here, at the
// boundary, before anything reaches the room directory.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/cipherroom/cipherroom/internal/core"
	"github.com/cipherroom/cipherroom/internal/domain"
)

// Wire event names. Inbound and outbound "chat message" share a name but
// not a shape: inbound carries a room, outbound carries the sender id.
const (
	EventJoinRoom     = "join room"
	EventChatMessage  = "chat message"
	EventExistingKeys = "existing public keys"
	EventPublicKey    = "public key"
	EventRoomFull     = "room full"
	EventUserLeft     = "user left"
	EventError        = "error"
)

var validate = validator.New()

// Envelope is the minimal shape every inbound frame must have.
type Envelope struct {
	Type string `json:"type" validate:"required"`
}

// JoinRoom asks to become a member of a room, announcing a public key the
// server passes through without inspection.
type JoinRoom struct {
	Room      string           `json:"room" validate:"required,max=64"`
	PublicKey domain.PublicKey `json:"publicKey" validate:"required"`
}

// ChatMessage carries an opaque encrypted payload for the sender's room.
// The room field is advisory: the single-room policy ignores it.
type ChatMessage struct {
	Room             string          `json:"room" validate:"omitempty,max=64"`
	EncryptedMessage json.RawMessage `json:"encryptedMessage" validate:"required"`
}

// ExistingKeys bootstraps a joiner with everyone already present, in join
// order, never including the joiner itself.
type ExistingKeys struct {
	Type string          `json:"type"`
	Keys []core.KeyEntry `json:"keys"`
}

func NewExistingKeys(keys []core.KeyEntry) ExistingKeys {
	if keys == nil {
		keys = []core.KeyEntry{}
	}
	return ExistingKeys{Type: EventExistingKeys, Keys: keys}
}

// PublicKey announces a newcomer to the members already in the room.
type PublicKey struct {
	Type      string           `json:"type"`
	ID        domain.ConnID    `json:"id"`
	PublicKey domain.PublicKey `json:"publicKey"`
}

func NewPublicKey(id domain.ConnID, key domain.PublicKey) PublicKey {
	return PublicKey{Type: EventPublicKey, ID: id, PublicKey: key}
}

// RoomFull rejects a join; it goes to the requester only.
type RoomFull struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

func NewRoomFull(room string) RoomFull {
	return RoomFull{Type: EventRoomFull, Room: room}
}

// ChatRelay is the outbound form of a chat message, tagged with the
// sender so recipients can pick the right key.
type ChatRelay struct {
	Type             string          `json:"type"`
	ID               domain.ConnID   `json:"id"`
	EncryptedMessage json.RawMessage `json:"encryptedMessage"`
}

func NewChatRelay(id domain.ConnID, payload json.RawMessage) ChatRelay {
	return ChatRelay{Type: EventChatMessage, ID: id, EncryptedMessage: payload}
}

// UserLeft tells the remaining members a connection departed.
type UserLeft struct {
	Type string        `json:"type"`
	ID   domain.ConnID `json:"id"`
}

func NewUserLeft(id domain.ConnID) UserLeft {
	return UserLeft{Type: EventUserLeft, ID: id}
}

// Error reports a dropped inbound event to the offending connection.
type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewError(reason string) Error {
	return Error{Type: EventError, Error: reason}
}

// DecodeEnvelope extracts the event tag from a raw frame.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if err := validate.Struct(env); err != nil {
		return Envelope{}, fmt.Errorf("validate envelope: %w", err)
	}
	return env, nil
}

// DecodeJoinRoom parses and validates a "join room" frame.
func DecodeJoinRoom(data []byte) (JoinRoom, error) {
	var p JoinRoom
	if err := json.Unmarshal(data, &p); err != nil {
		return JoinRoom{}, fmt.Errorf("decode join: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return JoinRoom{}, fmt.Errorf("validate join: %w", err)
	}
	return p, nil
}

// DecodeChatMessage parses and validates a "chat message" frame.
func DecodeChatMessage(data []byte) (ChatMessage, error) {
	var p ChatMessage
	if err := json.Unmarshal(data, &p); err != nil {
		return ChatMessage{}, fmt.Errorf("decode chat: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return ChatMessage{}, fmt.Errorf("validate chat: %w", err)
	}
	return p, nil
}

// Encode marshals an outbound notification into a frame.
func Encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return core.Frame(b), nil
}
