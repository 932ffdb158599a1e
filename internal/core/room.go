package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/cipherroom/cipherroom/internal/domain"
)

var (
	ErrRoomFull      = errors.New("room full")
	ErrAlreadyMember = errors.New("already a member")
	ErrRoomClosed    = errors.New("room closed")
)

type roomMember struct {
	member domain.Member
	sender Sender
}

// Room is a threadsafe in-memory room: an ordered member list with a
// capacity bound. It never closes adapter-owned resources.
//
// A Room whose last member was removed is marked closed and must not be
// reused; the directory drops it and a caller that raced the removal
// retries against a fresh Room.
type Room struct {
	id       domain.RoomID
	capacity int

	mu      sync.RWMutex
	closed  bool
	members []roomMember
}

// NewRoom creates an empty room. capacity <= 0 means unbounded.
func NewRoom(id domain.RoomID, capacity int) *Room {
	return &Room{id: id, capacity: capacity}
}

func (r *Room) ID() domain.RoomID { return r.id }

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Room) Has(id domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// Join appends m to the member list. On success it returns the bootstrap
// snapshot, the (id, key) pairs present immediately before the insert, and
// the senders of every other member for the key fan-out. Capacity and the
// duplicate guard are checked before any mutation.
func (r *Room) Join(m domain.Member, s Sender) (existing []KeyEntry, others []Sender, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, nil, ErrRoomClosed
	}
	if r.indexOf(m.ID) >= 0 {
		return nil, nil, ErrAlreadyMember
	}
	if r.capacity > 0 && len(r.members) >= r.capacity {
		return nil, nil, ErrRoomFull
	}

	existing = lo.Map(r.members, func(rm roomMember, _ int) KeyEntry {
		return KeyEntry{ID: rm.member.ID, PublicKey: rm.member.PublicKey}
	})
	others = lo.Map(r.members, func(rm roomMember, _ int) Sender {
		return rm.sender
	})
	r.members = append(r.members, roomMember{member: m, sender: s})
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("id", string(m.ID)).Int("count", len(r.members)).Msg("member added")
	return existing, others, nil
}

// Remove deletes the member with the given id, preserving the order of the
// rest. remaining holds the senders still present, empty reports that the
// room ran out of members; in that case the room is also marked closed,
// atomically with the removal.
func (r *Room) Remove(id domain.ConnID) (removed bool, remaining []Sender, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return false, nil, false
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	if len(r.members) == 0 {
		r.closed = true
		log.Debug().Str("module", "core.room").Str("room", string(r.id)).Msg("room emptied")
		return true, nil, true
	}
	remaining = lo.Map(r.members, func(rm roomMember, _ int) Sender {
		return rm.sender
	})
	return true, remaining, false
}

// Recipients lists the senders of every member except the given one.
func (r *Room) Recipients(except domain.ConnID) []Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.FilterMap(r.members, func(rm roomMember, _ int) (Sender, bool) {
		return rm.sender, rm.member.ID != except
	})
}

// Snapshot lists the current members in join order.
func (r *Room) Snapshot() []KeyEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.members, func(rm roomMember, _ int) KeyEntry {
		return KeyEntry{ID: rm.member.ID, PublicKey: rm.member.PublicKey}
	})
}

// indexOf is called with r.mu held.
func (r *Room) indexOf(id domain.ConnID) int {
	for i, rm := range r.members {
		if rm.member.ID == id {
			return i
		}
	}
	return -1
}
