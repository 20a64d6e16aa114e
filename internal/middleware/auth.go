package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/abisalde/storefront-auth/internal/auth"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/pkg/jwt"
	"github.com/gofiber/fiber/v2"
)

type AccessTokenVerifier interface {
	ValidateAccessToken(tokenString string) (*jwt.Claims, error)
}

// UserAuth admits shopper access tokens only.
func UserAuth(tokens AccessTokenVerifier) fiber.Handler {
	return guard(tokens, func(claims *jwt.Claims) bool {
		return claims.Role == jwt.RoleUser && claims.Subject != ""
	})
}

// AdminAuth admits admin tokens whose subject is the configured admin email.
func AdminAuth(tokens AccessTokenVerifier, adminEmail string) fiber.Handler {
	want := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(adminEmail))))

	return guard(tokens, func(claims *jwt.Claims) bool {
		got := sha256.Sum256([]byte(claims.Subject))
		return claims.IsAdmin() && subtle.ConstantTimeCompare(got[:], want[:]) == 1
	})
}

func guard(tokens AccessTokenVerifier, allow func(*jwt.Claims) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := auth.AccessToken(c)
		if tokenString == "" {
			return customErrors.NotAuthorized
		}

		claims, err := tokens.ValidateAccessToken(tokenString)
		if err != nil || !allow(claims) {
			return customErrors.NotAuthorized
		}

		id := auth.Identity{Subject: claims.Subject, Role: claims.Role}
		c.Locals(auth.LocalsIdentity, id)
		c.SetUserContext(auth.WithIdentity(c.UserContext(), id))
		return c.Next()
	}
}
