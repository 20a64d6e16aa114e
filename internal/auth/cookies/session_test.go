package cookies

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesFrom(t *testing.T, app *fiber.App) map[string]*http.Cookie {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)

	out := make(map[string]*http.Cookie)
	for _, c := range resp.Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestCreateBrowserSession(t *testing.T) {
	opts := Options{Secure: true, AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		CreateBrowserSession(c, TokenPair{AccessToken: "access", RefreshToken: "refresh"}, opts)
		return c.SendStatus(fiber.StatusOK)
	})

	got := cookiesFrom(t, app)
	require.Contains(t, got, AccessTokenName)
	require.Contains(t, got, RefreshTokenName)

	refresh := got[RefreshTokenName]
	assert.Equal(t, "refresh", refresh.Value)
	assert.True(t, refresh.HttpOnly)
	assert.True(t, refresh.Secure)
	assert.Equal(t, http.SameSiteNoneMode, refresh.SameSite)
	assert.InDelta(t, opts.RefreshTTL.Seconds(), float64(refresh.MaxAge), 2)

	access := got[AccessTokenName]
	assert.Equal(t, "access", access.Value)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite, "access cookie is never sent on cross-site posts")
}

func TestCreateBrowserSession_SkipsEmptyTokens(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		CreateBrowserSession(c, TokenPair{AccessToken: "access"}, Options{AccessTTL: time.Minute})
		return c.SendStatus(fiber.StatusOK)
	})

	got := cookiesFrom(t, app)
	assert.Contains(t, got, AccessTokenName)
	assert.NotContains(t, got, RefreshTokenName)
	assert.Equal(t, http.SameSiteLaxMode, got[AccessTokenName].SameSite)
}

func TestClearBrowserSession(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		ClearBrowserSession(c, Options{})
		return c.SendStatus(fiber.StatusOK)
	})

	got := cookiesFrom(t, app)
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		require.Contains(t, got, name)
		assert.Empty(t, got[name].Value)
		assert.True(t, got[name].Expires.Before(time.Now()))
	}
}
