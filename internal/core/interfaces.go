package core

import "github.com/cipherroom/cipherroom/internal/domain"

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// Sender is a transport endpoint a room fans out to.
// Owned by the adapter; the adapter must Close() it. TrySend must never
// block: a full or closed endpoint reports an error and the frame is
// dropped for that recipient only.
type Sender interface {
	TrySend(Frame) error
	Close()
}

// KeyEntry is a read-only view of a member for notifications
// (no transport fields).
type KeyEntry struct {
	ID        domain.ConnID    `json:"id"`
	PublicKey domain.PublicKey `json:"publicKey"`
}

// RoomInfo is a read-only room summary.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}
