package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/cipherroom/cipherroom/internal/core"
	"github.com/cipherroom/cipherroom/internal/domain"
)

// JoinStatus classifies the outcome of a Join.
type JoinStatus int

const (
	// JoinOK: the member was inserted.
	JoinOK JoinStatus = iota
	// JoinFull: the room is at capacity; nothing was mutated.
	JoinFull
	// JoinNoop: the connection is already a member of the room; nothing
	// was mutated (guards duplicate join events).
	JoinNoop
)

// LeaveEcho carries one room's departure fan-out: the senders that should
// receive a "user left" notification.
type LeaveEcho struct {
	Room       domain.RoomID
	Recipients []core.Sender
}

// JoinResult is everything the transport needs to deliver after a Join:
// the bootstrap key list for the joiner, the fan-out targets for the
// newcomer's key, and any departures caused by a room switch.
type JoinResult struct {
	Status   JoinStatus
	Existing []core.KeyEntry
	Others   []core.Sender
	Departed []LeaveEcho
}

type RelayResult struct {
	Room       domain.RoomID
	Recipients []core.Sender
}

type LeaveResult struct {
	Rooms []LeaveEcho
}

// Directory is the room directory state machine: it maps room ids to live
// rooms and connections to their registrations, and serializes membership
// changes per room. It performs no I/O; every operation returns the
// recipients the caller should deliver to after the mutation has
// committed, so nothing blocks on the network while a lock is held.
type Directory struct {
	capacity int
	policy   MembershipPolicy

	mu     sync.RWMutex
	rooms  map[domain.RoomID]*core.Room
	byConn map[domain.ConnID][]domain.RoomID
}

// NewDirectory creates an empty directory. capacity <= 0 leaves rooms
// unbounded; capacity 2 gives the paired-session behavior. A nil policy
// defaults to one room per connection.
func NewDirectory(capacity int, policy MembershipPolicy) *Directory {
	if policy == nil {
		policy = SingleRoomPolicy{}
	}
	return &Directory{
		capacity: capacity,
		policy:   policy,
		rooms:    make(map[domain.RoomID]*core.Room),
		byConn:   make(map[domain.ConnID][]domain.RoomID),
	}
}

// Join makes the connection a member of the room, creating the room on
// first use. On success the result carries the membership snapshot taken
// immediately before the insert (never including the joiner) and the
// senders owed a key notification. A full room rejects without mutating
// anything; under the single-room policy a successful join also removes
// the connection from its previous room.
func (d *Directory) Join(connID domain.ConnID, roomID domain.RoomID, key domain.PublicKey, sender core.Sender) JoinResult {
	// The transport validates at the boundary; this guard keeps a
	// malformed event from mutating anything even when it does not.
	if err := roomID.Validate(); err != nil {
		return JoinResult{Status: JoinNoop}
	}
	member, err := domain.NewMember(connID, key)
	if err != nil {
		return JoinResult{Status: JoinNoop}
	}

	d.mu.RLock()
	registered := lo.Contains(d.byConn[connID], roomID)
	d.mu.RUnlock()
	if registered {
		log.Debug().Str("module", "app.directory").Str("id", string(connID)).Str("room", string(roomID)).Msg("duplicate join ignored")
		return JoinResult{Status: JoinNoop}
	}

	for {
		room := d.getOrCreate(roomID)
		existing, others, err := room.Join(member, sender)
		switch {
		case errors.Is(err, core.ErrRoomClosed):
			// Lost the race against the last member's departure; the
			// closed room is already gone from the table.
			continue
		case errors.Is(err, core.ErrRoomFull):
			log.Info().Str("module", "app.directory").Str("id", string(connID)).Str("room", string(roomID)).Msg("join rejected, room full")
			return JoinResult{Status: JoinFull}
		case errors.Is(err, core.ErrAlreadyMember):
			return JoinResult{Status: JoinNoop}
		}

		d.mu.Lock()
		var departed []LeaveEcho
		if d.policy.Displaces() {
			departed = d.removeAllLocked(connID)
		}
		d.byConn[connID] = append(d.byConn[connID], roomID)
		d.mu.Unlock()

		log.Info().Str("module", "app.directory").Str("id", string(connID)).Str("room", string(roomID)).Msg("joined room")
		return JoinResult{Status: JoinOK, Existing: existing, Others: others, Departed: departed}
	}
}

// Relay resolves the sender's room and returns the fan-out targets for an
// opaque payload. The sender itself is never included. Under the
// single-room policy the claimed room id is ignored in favor of the
// registration; under multi-room it is honored only if the sender is
// actually registered there. Unknown senders and empty rooms relay to
// nobody.
func (d *Directory) Relay(connID domain.ConnID, claimed domain.RoomID) RelayResult {
	d.mu.RLock()
	regs := d.byConn[connID]
	var target domain.RoomID
	if d.policy.Displaces() {
		if len(regs) > 0 {
			target = regs[0]
		}
	} else if lo.Contains(regs, claimed) {
		target = claimed
	}
	room := d.rooms[target]
	d.mu.RUnlock()

	if target == "" || room == nil {
		return RelayResult{}
	}
	return RelayResult{Room: target, Recipients: room.Recipients(connID)}
}

// Leave removes the connection from every room it is registered in,
// dropping each room that runs out of members. It is idempotent: a
// connection with no registrations leaves nothing behind and nothing to
// deliver.
func (d *Directory) Leave(connID domain.ConnID) LeaveResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return LeaveResult{Rooms: d.removeAllLocked(connID)}
}

// RoomsOf reports the rooms the connection is currently registered in.
func (d *Directory) RoomsOf(connID domain.ConnID) []domain.RoomID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.RoomID(nil), d.byConn[connID]...)
}

// Rooms lists the live rooms. A room whose last member left is never
// observable here.
func (d *Directory) Rooms() []core.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(d.rooms))
	for id, r := range d.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: r.MemberCount()})
	}
	return out
}

// MembersOf returns the membership snapshot of a room, in join order.
func (d *Directory) MembersOf(roomID domain.RoomID) []core.KeyEntry {
	d.mu.RLock()
	room := d.rooms[roomID]
	d.mu.RUnlock()
	if room == nil {
		return nil
	}
	return room.Snapshot()
}

func (d *Directory) getOrCreate(roomID domain.RoomID) *core.Room {
	d.mu.RLock()
	room, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if ok {
		return room
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok = d.rooms[roomID]; ok {
		return room
	}
	room = core.NewRoom(roomID, d.capacity)
	d.rooms[roomID] = room
	log.Debug().Str("module", "app.directory").Str("room", string(roomID)).Msg("room created")
	return room
}

// removeAllLocked is called with d.mu held. Removing a room's last member
// and dropping the room from the table happen under the same lock, so no
// reader ever observes an empty room.
func (d *Directory) removeAllLocked(connID domain.ConnID) []LeaveEcho {
	regs := d.byConn[connID]
	if len(regs) == 0 {
		return nil
	}
	delete(d.byConn, connID)

	echoes := make([]LeaveEcho, 0, len(regs))
	for _, roomID := range regs {
		room := d.rooms[roomID]
		if room == nil {
			continue
		}
		removed, remaining, empty := room.Remove(connID)
		if !removed {
			continue
		}
		if empty {
			delete(d.rooms, roomID)
			log.Info().Str("module", "app.directory").Str("room", string(roomID)).Msg("room removed")
		}
		echoes = append(echoes, LeaveEcho{Room: roomID, Recipients: remaining})
	}
	return echoes
}
