package http

import (
	"context"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cipherroom/cipherroom/internal/adapters/signal"
	"github.com/cipherroom/cipherroom/internal/config"
)

// ClientTokenMiddleware gives every browser a stable token cookie. The
// token is not the connection id (each socket gets its own); it ties a
// browser's connections together in the logs.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// SetupRouter wires the full HTTP surface: the static client page at /
// and /rooms/:room (the room id travels to the client purely via the URL
// path), and the signaling WebSocket under /api.
func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CipherRoomSession", store))
	r.Use(ClientTokenMiddleware())

	index := filepath.Join(cfg.StaticPath, "index.html")
	serveIndex := func(c *gin.Context) {
		c.File(index)
	}

	r.Static("/static", cfg.StaticPath)
	r.GET("/", serveIndex)
	r.GET("/rooms/:room", serveIndex)

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
