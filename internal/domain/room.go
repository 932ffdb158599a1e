package domain

import "errors"

const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

// RoomID is an opaque identifier chosen by clients, typically the tail
// segment of a /rooms/... URL. The server never interprets it.
type RoomID string

func (id RoomID) Validate() error {
	if len(id) == 0 {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}
