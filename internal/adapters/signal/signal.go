// Package signal is the WebSocket transport adapter: it upgrades
// connections, pumps frames, and translates between wire events and room
// directory operations. Delivery is fire-and-forget; a slow or broken
// recipient drops frames without affecting anyone else.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cipherroom/cipherroom/internal/app"
	"github.com/cipherroom/cipherroom/internal/config"
	"github.com/cipherroom/cipherroom/internal/core"
	"github.com/cipherroom/cipherroom/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Controller owns the signaling endpoint. One instance serves all
// connections.
type Controller struct {
	cfg       *config.Config
	directory *app.Directory
	registry  *app.Registry
	limiter   *JoinRateLimiter
}

func NewController(cfg *config.Config, directory *app.Directory, registry *app.Registry) *Controller {
	return &Controller{
		cfg:       cfg,
		directory: directory,
		registry:  registry,
		limiter:   NewJoinRateLimiter(cfg.JoinRate, cfg.JoinInterval),
	}
}

// wsSender is the core.Sender for one WebSocket connection. TrySend queues
// into a buffered channel and never blocks; the write pump drains it.
type wsSender struct {
	conn WSConn
	send chan core.Frame

	mu     sync.Mutex
	closed bool
}

func newWSSender(conn WSConn, buffer int) *wsSender {
	return &wsSender{conn: conn, send: make(chan core.Frame, buffer)}
}

func (c *wsSender) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *wsSender) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection until it closes.
// Every socket gets a fresh connection id: two tabs of one browser are
// two members. The client token only correlates them in the logs.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	connID := domain.ConnID(uuid.NewString())

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("id", string(connID)).Str("token", c.GetString("client_token")).Msg("user connected")

	sender := newWSSender(ws, ctl.cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	ctl.registry.Bind(connID, sender, cancel)

	go ctl.writePump(ctx, sender)
	go ctl.readPump(ctx, connID, sender)
}
