package app

// MembershipPolicy decides how a connection's existing room registrations
// interact with a new join.
type MembershipPolicy interface {
	// Displaces reports whether joining a new room first removes the
	// connection from every room it currently occupies.
	Displaces() bool
}

// SingleRoomPolicy is the default: one room per connection. Joining a
// different room displaces the previous membership, the same way a
// room switch would.
type SingleRoomPolicy struct{}

func (SingleRoomPolicy) Displaces() bool { return true }

// MultiRoomPolicy allows concurrent memberships in any number of rooms.
type MultiRoomPolicy struct{}

func (MultiRoomPolicy) Displaces() bool { return false }
