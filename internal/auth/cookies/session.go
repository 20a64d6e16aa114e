package cookies

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Options struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// refreshSameSite: cross-site frontends need None on the refresh cookie,
// which browsers only honour on secure cookies. The access cookie stays Lax
// so cross-site form posts never carry it.
func (o Options) refreshSameSite() string {
	if o.Secure {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}

// CreateBrowserSession sets whichever tokens of the pair are non-empty.
func CreateBrowserSession(c *fiber.Ctx, tokens TokenPair, opts Options) {
	now := time.Now()

	if tokens.RefreshToken != "" {
		c.Cookie(newCookie(RefreshTokenName, tokens.RefreshToken, now.Add(opts.RefreshTTL), opts.Secure, opts.refreshSameSite()))
	}
	if tokens.AccessToken != "" {
		c.Cookie(newCookie(AccessTokenName, tokens.AccessToken, now.Add(opts.AccessTTL), opts.Secure, fiber.CookieSameSiteLaxMode))
	}
}

func ClearBrowserSession(c *fiber.Ctx, opts Options) {
	expired := time.Unix(0, 0)
	for name, sameSite := range map[string]string{
		AccessTokenName:  fiber.CookieSameSiteLaxMode,
		RefreshTokenName: opts.refreshSameSite(),
	} {
		cookie := newCookie(name, "", expired, opts.Secure, sameSite)
		cookie.MaxAge = -1
		c.Cookie(cookie)
	}
}

func newCookie(name, value string, expires time.Time, secure bool, sameSite string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: sameSite,
	}
}
