package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware marks engine responses as uncacheable: every answer
// reflects in-flight state. Handlers may still set their own header.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Get("Cache-Control") != "" {
			return err
		}

		path := c.Path()
		switch {
		case path == "/v1/health":
			c.Set("Cache-Control", "public, max-age=10")
		case path == "/metrics", strings.HasPrefix(path, "/v1/"):
			c.Set("Cache-Control", "no-store")
		}
		return err
	}
}
