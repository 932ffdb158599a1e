package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/cipherroom/cipherroom/internal/app"
	"github.com/cipherroom/cipherroom/internal/domain"
	"github.com/cipherroom/cipherroom/internal/protocol"
)

// handleJoin runs a join and delivers its fan-out: the bootstrap key list
// to the joiner, the newcomer's key to everyone already present, and any
// departures caused by a room switch. Delivery happens strictly after the
// directory mutation has committed.
func (ctl *Controller) handleJoin(connID domain.ConnID, c *wsSender, data []byte) {
	if !ctl.limiter.Allow(connID) {
		log.Warn().Str("module", "signal").Str("id", string(connID)).Msg("join throttled")
		ctl.sendJSON(c, protocol.NewError("too_many_joins"))
		return
	}

	p, err := protocol.DecodeJoinRoom(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(connID)).Msg("bad join payload")
		ctl.sendJSON(c, protocol.NewError("bad_payload"))
		return
	}

	roomID := domain.RoomID(p.Room)
	res := ctl.directory.Join(connID, roomID, p.PublicKey, c)

	for _, echo := range res.Departed {
		ctl.broadcast(echo.Recipients, protocol.NewUserLeft(connID))
	}

	switch res.Status {
	case app.JoinFull:
		ctl.sendJSON(c, protocol.NewRoomFull(p.Room))
	case app.JoinOK:
		ctl.sendJSON(c, protocol.NewExistingKeys(res.Existing))
		ctl.broadcast(res.Others, protocol.NewPublicKey(connID, p.PublicKey))
	case app.JoinNoop:
		// Duplicate join event; nothing changed, nothing to say.
	}
}

// handleChat relays an opaque encrypted payload to the rest of the
// sender's room. The payload is never inspected.
func (ctl *Controller) handleChat(connID domain.ConnID, c *wsSender, data []byte) {
	p, err := protocol.DecodeChatMessage(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(connID)).Msg("bad chat payload")
		ctl.sendJSON(c, protocol.NewError("bad_payload"))
		return
	}

	res := ctl.directory.Relay(connID, domain.RoomID(p.Room))
	ctl.broadcast(res.Recipients, protocol.NewChatRelay(connID, p.EncryptedMessage))
}

// handleDisconnect propagates a closed connection: the member is removed
// from each of its rooms and the remaining members are told who left.
func (ctl *Controller) handleDisconnect(connID domain.ConnID) {
	res := ctl.directory.Leave(connID)
	for _, echo := range res.Rooms {
		ctl.broadcast(echo.Recipients, protocol.NewUserLeft(connID))
	}
}
