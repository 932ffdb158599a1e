package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cipherroom/cipherroom/internal/core"
	"github.com/cipherroom/cipherroom/internal/domain"
	"github.com/cipherroom/cipherroom/internal/protocol"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsSender) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump reads frames until the connection dies, then runs the
// disconnect path exactly once. A connection that never joined holds no
// directory state and the disconnect degrades to a no-op.
func (ctl *Controller) readPump(ctx context.Context, connID domain.ConnID, c *wsSender) {
	defer func() {
		ctl.handleDisconnect(connID)
		ctl.registry.Cancel(connID)
		ctl.registry.Unbind(connID)
		ctl.limiter.Forget(connID)
		c.Close()
		log.Info().Str("module", "signal").Str("id", string(connID)).Msg("user disconnected")
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	deadline := ctl.cfg.PingPeriod + ctl.cfg.WriteTimeout
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(connID, c, data)
		}
	}
}

func (ctl *Controller) dispatch(connID domain.ConnID, c *wsSender, data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(connID)).Msg("bad frame")
		ctl.sendJSON(c, protocol.NewError("bad_payload"))
		return
	}
	switch env.Type {
	case protocol.EventJoinRoom:
		ctl.handleJoin(connID, c, data)
	case protocol.EventChatMessage:
		ctl.handleChat(connID, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
		ctl.sendJSON(c, protocol.NewError("unknown_event"))
	}
}

func (ctl *Controller) sendJSON(c *wsSender, v any) {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON encode")
		return
	}
	_ = c.TrySend(b)
}

// broadcast delivers one encoded frame to every recipient. Individual
// failures are dropped; the broken connection resolves itself through its
// own disconnect.
func (ctl *Controller) broadcast(recipients []core.Sender, v any) {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast encode")
		return
	}
	for _, s := range recipients {
		if err := s.TrySend(b); err != nil {
			log.Debug().Err(err).Str("module", "signal").Msg("broadcast drop")
		}
	}
}
