// Package router wires the HTTP surface onto Echo. Login and the health
// probe stay open; everything else under /api requires an operator token,
// and the whole API sits behind the Redis rate limiter when one is
// configured.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cafeteria-pos/internal/config"
	"github.com/iliyamo/cafeteria-pos/internal/handler"
	"github.com/iliyamo/cafeteria-pos/internal/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	RFID         *handler.RFIDHandler
	Users        *handler.UserHandler
	Purchases    *handler.PurchaseHandler
	Reservations *handler.ReservationHandler
	WS           *handler.WSHandler
}

// Register mounts all routes on the provided Echo instance.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// The realtime channel authenticates per command, not per connection:
	// kiosk displays attach before any operator signs in.
	e.GET("/ws", h.WS.Serve)

	api := e.Group("/api")
	api.Use(middleware.NewTokenBucket(rlCfg, rdb))

	api.POST("/auth/login", h.Auth.Login)

	auth := api.Group("")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))

	auth.GET("/rfid/status", h.RFID.Status)
	auth.GET("/rfid/history", h.RFID.History)
	auth.POST("/rfid/manual-scan", h.RFID.ManualScan)
	auth.POST("/rfid/reconnect", h.RFID.Reconnect)

	auth.GET("/users/uid/:uid", h.Users.ByUID)
	auth.GET("/users/search", h.Users.Search)
	auth.GET("/users/:id", h.Users.ByID)
	auth.POST("/users", h.Users.Register)

	auth.GET("/foods", h.Purchases.Foods)
	auth.POST("/purchases", h.Purchases.Complete)
	auth.GET("/purchases/stats", h.Purchases.Stats)
	auth.GET("/purchases/user/:id", h.Purchases.History)

	auth.GET("/reservations/today/:userId", h.Reservations.TodayFor)
	auth.GET("/reservations/stats", h.Reservations.Stats)
	auth.GET("/reservations/:id", h.Reservations.ByID)
	auth.POST("/reservations/:id/confirm", h.Reservations.Confirm)
}
