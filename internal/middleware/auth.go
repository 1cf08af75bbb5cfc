package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/services"
)

const claimsKey = "claims"

// RequireAuth validates the Bearer token and stashes its claims in the
// request context.
func RequireAuth(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireScope gates a route on one token scope.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil || !claims.HasScope(scope) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient scope",
			})
		}
		return c.Next()
	}
}

// Claims returns the verified token claims for the request, or nil.
func Claims(c *fiber.Ctx) *services.TokenClaims {
	claims, _ := c.Locals(claimsKey).(*services.TokenClaims)
	return claims
}

// AccountID returns the authenticated account id, or 0.
func AccountID(c *fiber.Ctx) uint {
	claims := Claims(c)
	if claims == nil {
		return 0
	}
	if claims.AccountID != 0 {
		return claims.AccountID
	}
	id, _ := strconv.ParseUint(claims.Subject, 10, 64)
	return uint(id)
}
