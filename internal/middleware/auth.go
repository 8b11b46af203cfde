package middleware

import (
	"huddle-backend/config"
	"huddle-backend/internal/auth"
	"huddle-backend/internal/meeting"
	"huddle-backend/internal/models"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	claimsKey   = "user"
	tokenCookie = "jwt"
)

// bearerToken returns the access token from the Authorization header, falling back
// to the cookie set by the social login callback
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Cookies(tokenCookie)
	}

	// Handle both cases: with and without "Bearer " prefix
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// Protected rejects requests without a valid access token
func Protected(cfg *config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		claims, err := auth.ValidateToken(token, auth.TokenTypeAccess, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// Optional identifies the caller when a valid token is present and lets guests
// through otherwise. An invalid token is treated like no token.
func Optional(cfg *config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			if claims, err := auth.ValidateToken(token, auth.TokenTypeAccess, cfg); err == nil {
				c.Locals(claimsKey, claims)
			}
		}
		return c.Next()
	}
}

// RequireAccess checks for a specific access level. It must run after Protected.
func RequireAccess(requiredAccess models.AccessLevel) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims != nil {
			for _, access := range claims.Accesses {
				if access == string(requiredAccess) {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient access rights",
		})
	}
}

// Claims returns the verified token claims, or nil for guests
func Claims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsKey).(*auth.Claims)
	return claims
}

// Caller returns the identity meeting operations run as, or nil for guests
func Caller(c *fiber.Ctx) *meeting.Caller {
	return Claims(c).Caller()
}
