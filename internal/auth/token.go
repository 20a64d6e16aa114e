package auth

import (
	"strings"

	"github.com/abisalde/storefront-auth/internal/auth/cookies"
	"github.com/gofiber/fiber/v2"
)

// BearerToken returns the token from an "Authorization: Bearer" header, or
// "" when the header is absent or uses another scheme.
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AccessToken prefers the bearer header. The access cookie is only accepted
// on safe methods; state-changing requests must carry the header.
func AccessToken(c *fiber.Ctx) string {
	if token := BearerToken(c); token != "" {
		return token
	}
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead:
		return c.Cookies(cookies.AccessTokenName)
	}
	return ""
}

// RefreshToken prefers the refresh cookie, the way browsers send it.
func RefreshToken(c *fiber.Ctx) string {
	if token := c.Cookies(cookies.RefreshTokenName); token != "" {
		return token
	}
	return BearerToken(c)
}
