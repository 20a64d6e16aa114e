package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abisalde/storefront-auth/internal/configs"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/abisalde/storefront-auth/pkg/jwt"
	"github.com/abisalde/storefront-auth/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterLoginRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.register(t, "Alice", "Alice@Example.com", "password123")
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, model.EmailStatusSent, res.EmailStatus)

	welcome, ok := env.mailer.last("Welcome to Forever!")
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", welcome.To)
	assert.Contains(t, welcome.Body, "Alice")

	verify, ok := env.mailer.last("Verify your email address")
	require.True(t, ok)
	assert.Contains(t, verify.Body, "http://localhost:5173/verify-email?token=")

	stored, err := env.repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, password.CheckPasswordHash("password123", stored.PasswordHash))
	rawToken := tokenPattern.FindStringSubmatch(verify.Body)[1]
	require.NotNil(t, stored.VerificationToken)
	assert.NotEqual(t, rawToken, *stored.VerificationToken)

	pair, err := env.svc.Login(ctx, model.LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	claims, err := env.svc.Tokens().ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.ID, claims.Subject)
	assert.Equal(t, jwt.RoleUser, claims.Role)

	n, err := env.cache.RawClient().XLen(ctx, LoginStreamKey).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	refreshed, err := env.svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, refreshed.RefreshToken)
	claims, err = env.svc.Tokens().ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.ID, claims.Subject)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@example.com", "password123")

	tests := []struct {
		name  string
		input model.RegisterInput
		want  error
	}{
		{"missing name", model.RegisterInput{Email: "bob@example.com", Password: "password123"}, customErrors.MissingFields},
		{"blank name", model.RegisterInput{Name: "   ", Email: "bob@example.com", Password: "password123"}, customErrors.MissingFields},
		{"missing password", model.RegisterInput{Name: "Bob", Email: "bob@example.com"}, customErrors.MissingFields},
		{"invalid email", model.RegisterInput{Name: "Bob", Email: "bob-at-example", Password: "password123"}, customErrors.InvalidEmail},
		{"short password", model.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "short"}, customErrors.ShortPassword},
		{"long password", model.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: strings.Repeat("p", 73)}, customErrors.LongPassword},
		{"duplicate email", model.RegisterInput{Name: "Alice", Email: " ALICE@example.com", Password: "password123"}, customErrors.EmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_RegisterSurvivesMailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.SendFunc = func(ctx context.Context, to, subject, body string) error {
		return errors.New("provider down")
	}

	res := env.register(t, "Alice", "alice@example.com", "password123")
	assert.Equal(t, model.EmailStatusDeliveryFailed, res.EmailStatus)

	_, err := env.repo.GetByID(context.Background(), res.ID)
	assert.NoError(t, err)
}

func TestAuthService_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.register(t, "Alice", "alice@example.com", "password123")

	_, unknownErr := env.svc.Login(ctx, model.LoginInput{Email: "nobody@example.com", Password: "password123"})
	_, wrongErr := env.svc.Login(ctx, model.LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	requireErrorType(t, unknownErr, model.ErrorTypeInvalidCredentials)
	requireErrorType(t, wrongErr, model.ErrorTypeInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())

	_, err := env.svc.Login(ctx, model.LoginInput{Email: "alice@example.com"})
	assert.ErrorIs(t, err, customErrors.MissingFields)

	require.NoError(t, env.repo.UpdateStatus(ctx, res.ID, model.UserStatusSuspended))
	_, err = env.svc.Login(ctx, model.LoginInput{Email: "alice@example.com", Password: "password123"})
	requireErrorType(t, err, model.ErrorTypeAccountSuspended)

	_, err = env.svc.Login(ctx, model.LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	requireErrorType(t, err, model.ErrorTypeInvalidCredentials)
}

func TestAuthService_LoginRequiresVerifiedEmail(t *testing.T) {
	env := newTestEnv(t, func(c *configs.Config) { c.Auth.RequireVerifiedEmail = true })
	ctx := context.Background()
	env.register(t, "Alice", "alice@example.com", "password123")

	_, err := env.svc.Login(ctx, model.LoginInput{Email: "alice@example.com", Password: "password123"})
	requireErrorType(t, err, model.ErrorTypeEmailNotVerified)

	verify, _ := env.mailer.last("Verify your email address")
	_, err = env.svc.VerifyEmail(ctx, tokenPattern.FindStringSubmatch(verify.Body)[1])
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, model.LoginInput{Email: "alice@example.com", Password: "password123"})
	assert.NoError(t, err)
}

func TestAuthService_AdminLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("plain password", func(t *testing.T) {
		env := newTestEnv(t)

		res, err := env.svc.AdminLogin(ctx, model.LoginInput{Email: "Admin@Forever.com", Password: "admin-pass-123"})
		require.NoError(t, err)
		assert.Empty(t, res.RefreshToken)

		claims, err := env.svc.Tokens().ValidateAccessToken(res.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin())
		assert.Equal(t, "admin@forever.com", claims.Subject)

		for _, in := range []model.LoginInput{
			{Email: "admin@forever.com", Password: "admin-pass-124"},
			{Email: "other@forever.com", Password: "admin-pass-123"},
		} {
			_, err := env.svc.AdminLogin(ctx, in)
			requireErrorType(t, err, model.ErrorTypeInvalidCredentials)
		}
	})

	t.Run("bcrypt hash", func(t *testing.T) {
		hash, err := password.NewHasher(4).Hash("hashed-admin-pass")
		require.NoError(t, err)
		env := newTestEnv(t, func(c *configs.Config) {
			c.Admin.Password = ""
			c.Admin.PasswordHash = hash
		})

		_, err = env.svc.AdminLogin(ctx, model.LoginInput{Email: "admin@forever.com", Password: "hashed-admin-pass"})
		assert.NoError(t, err)
		_, err = env.svc.AdminLogin(ctx, model.LoginInput{Email: "admin@forever.com", Password: "admin-pass-123"})
		requireErrorType(t, err, model.ErrorTypeInvalidCredentials)
	})
}

func TestAuthService_RefreshTokenRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.register(t, "Alice", "alice@example.com", "password123")
	pair, err := env.svc.Login(ctx, model.LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = env.svc.RefreshToken(ctx, "")
	requireErrorType(t, err, model.ErrorTypeUnauthorized)

	_, err = env.svc.RefreshToken(ctx, pair.AccessToken)
	requireErrorType(t, err, model.ErrorTypeUnauthorized)

	_, err = env.svc.RefreshToken(ctx, pair.RefreshToken+"x")
	requireErrorType(t, err, model.ErrorTypeUnauthorized)

	require.NoError(t, env.repo.UpdateStatus(ctx, res.ID, model.UserStatusSuspended))
	_, err = env.svc.RefreshToken(ctx, pair.RefreshToken)
	requireErrorType(t, err, model.ErrorTypeUnauthorized)
}

func TestAuthService_VerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.register(t, "Alice", "alice@example.com", "password123")

	verify, _ := env.mailer.last("Verify your email address")
	token := tokenPattern.FindStringSubmatch(verify.Body)[1]

	_, err := env.svc.VerifyEmail(ctx, "deadbeef")
	requireErrorType(t, err, model.ErrorTypeInvalidToken)

	msg, err := env.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Email verified successfully", msg.Message)

	u, err := env.repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.Nil(t, u.VerificationToken)

	_, err = env.svc.VerifyEmail(ctx, token)
	requireErrorType(t, err, model.ErrorTypeInvalidToken)

	_, err = env.svc.ResendVerification(ctx, "alice@example.com")
	assert.ErrorIs(t, err, customErrors.AlreadyVerified)
}

func TestAuthService_ResendVerificationReplacesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@example.com", "password123")

	first, _ := env.mailer.last("Verify your email address")
	oldToken := tokenPattern.FindStringSubmatch(first.Body)[1]

	_, err := env.svc.ResendVerification(ctx, "alice@example.com")
	require.NoError(t, err)
	second, _ := env.mailer.last("Verify your email address")
	newToken := tokenPattern.FindStringSubmatch(second.Body)[1]
	assert.NotEqual(t, oldToken, newToken)

	_, err = env.svc.VerifyEmail(ctx, oldToken)
	requireErrorType(t, err, model.ErrorTypeInvalidToken)
	_, err = env.svc.VerifyEmail(ctx, newToken)
	assert.NoError(t, err)

	_, err = env.svc.ResendVerification(ctx, "ghost@example.com")
	requireErrorType(t, err, model.ErrorTypeNotFound)
}

func TestAuthService_UpdateLastLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.register(t, "Alice", "alice@example.com", "password123")

	at := env.svc.now().UTC()
	require.NoError(t, env.svc.UpdateLastLogin(ctx, res.ID, at))

	profile, err := env.svc.Profile(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.LastLoginAt)
	assert.WithinDuration(t, at, *profile.LastLoginAt, time.Second)
}
