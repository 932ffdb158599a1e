// Package domain contains entity types without logic, just meta-data.
package domain

import (
	"encoding/json"
	"errors"
)

var ErrPublicKeyEmpty = errors.New("public key empty")

// ConnID identifies one live client connection. It is opaque, unique for
// the lifetime of the process, and assigned by the transport layer.
type ConnID string

// PublicKey is an opaque blob supplied by a client on join. The server
// relays it verbatim and never inspects or validates its contents.
type PublicKey = json.RawMessage

// Member represents one connection's participation in one room.
// The key is immutable for the lifetime of the membership; rotation
// requires leave and rejoin.
type Member struct {
	ID        ConnID    `json:"id"`
	PublicKey PublicKey `json:"publicKey"`
}

// NewMember avoids raw struct literals in adapters and keeps construction
// obvious.
func NewMember(id ConnID, key PublicKey) (Member, error) {
	if len(key) == 0 {
		return Member{}, ErrPublicKeyEmpty
	}
	return Member{ID: id, PublicKey: key}, nil
}
