package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type contextKey string

var (
	IdentityKey = contextKey("identity")
	ClientIPKey = contextKey("clientIP")
)

// LocalsIdentity is the fiber Locals key the route guards write to.
const LocalsIdentity = "identity"

// Identity is the verified subject of an access token. Subject is a user id
// for shoppers and the configured admin email for the admin.
type Identity struct {
	Subject string
	Role    string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(Identity)
	return id, ok
}

// IdentityFromFiber reads the identity from Locals, falling back to the
// user context.
func IdentityFromFiber(c *fiber.Ctx) (Identity, bool) {
	if id, ok := c.Locals(LocalsIdentity).(Identity); ok {
		return id, true
	}
	return GetIdentity(c.UserContext())
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPKey, ip)
}

func GetIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return ""
}
