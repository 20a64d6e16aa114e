package middleware

import (
	"github.com/abisalde/storefront-auth/internal/auth"
	"github.com/gofiber/fiber/v2"
)

func FiberWebMiddleware(c *fiber.Ctx) error {
	c.SetUserContext(auth.WithClientIP(c.UserContext(), c.IP()))
	return c.Next()
}
