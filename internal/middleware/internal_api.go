package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// RequireInternalKey gates the bot-gateway endpoints on the shared
// internal API key.
func RequireInternalKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get("X-Internal-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid internal api key",
			})
		}
		return c.Next()
	}
}
