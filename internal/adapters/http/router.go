package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/lliebig/opencelldroid/internal/pkg/metrics"
)

const handlerTimeout = 15 * time.Second

// SetupRoutes registers the REST and WebSocket routes of the engine.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})
	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/cells", timeout.NewWithContext(SubmitCellHandler(deps), handlerTimeout))
	v1.Get("/cells/area", timeout.NewWithContext(QueryAreaHandler(deps), handlerTimeout))
	v1.Get("/cells/nearby", timeout.NewWithContext(NearbyCellsHandler(deps), handlerTimeout))
	v1.Post("/viewport", timeout.NewWithContext(ViewportHandler(deps), handlerTimeout))
	v1.Delete("/requests", CancelAllHandler(deps))

	v1.Post("/location/acquire", AcquireLocationHandler(deps))
	v1.Delete("/location/acquire", CancelLocationHandler(deps))
	v1.Post("/location/fix", PushFixHandler(deps))
	v1.Put("/radio", timeout.NewWithContext(UpdateRadioHandler(deps), handlerTimeout))

	v1.Get("/outcomes", timeout.NewWithContext(ListOutcomesHandler(deps), handlerTimeout))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.Hub)))
}
