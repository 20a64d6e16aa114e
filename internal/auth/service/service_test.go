package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/abisalde/storefront-auth/internal/auth/repository"
	"github.com/abisalde/storefront-auth/internal/configs"
	"github.com/abisalde/storefront-auth/internal/database"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/abisalde/storefront-auth/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail

	SendFunc func(ctx context.Context, to, subject, body string) error
}

func (m *mockMailer) SendPlainTextEmail(ctx context.Context, to, subject, body string) error {
	return m.SendHTMLEmail(ctx, to, subject, body)
}

func (m *mockMailer) SendHTMLEmail(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, body)
	}
	return nil
}

func (m *mockMailer) last(subject string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Subject == subject {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

var (
	otpPattern   = regexp.MustCompile(`>(\d{6})<`)
	tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)
)

type testEnv struct {
	svc    *AuthService
	repo   repository.UserRepository
	mailer *mockMailer
	cache  *database.RedisCache
	redis  *miniredis.Miniredis
}

func testConfig() *configs.Config {
	return &configs.Config{
		App: configs.AppConfig{Env: configs.EnvTest, FrontendURL: "http://localhost:5173"},
		JWT: configs.JWTConfig{
			AccessSecret:  "access-secret-for-tests",
			RefreshSecret: "refresh-secret-for-tests",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Admin: configs.AdminConfig{Email: "admin@forever.com", Password: "admin-pass-123"},
		Auth: configs.AuthConfig{
			BcryptCost:      4,
			OTPTTL:          time.Hour,
			OTPMaxAttempts:  5,
			ResetGrantTTL:   10 * time.Minute,
			TokenHashSecret: "hash-secret-for-tests",
		},
		Mail: configs.MailConfig{Timeout: time.Second},
	}
}

func newTestEnv(t *testing.T, mutate ...func(*configs.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQL(ctx, "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db, "sqlite3"))

	mr := miniredis.RunT(t)
	cache := database.NewCacheService(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	repo := repository.NewSQLUserRepository(db)
	mailer := &mockMailer{}
	svc, err := NewAuthService(repo, cfg, cache, mailer, logger.Nop())
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, mailer: mailer, cache: cache, redis: mr}
}

func (e *testEnv) register(t *testing.T, name, email, pw string) *model.RegisterResponse {
	t.Helper()
	res, err := e.svc.Register(context.Background(), model.RegisterInput{Name: name, Email: email, Password: pw})
	require.NoError(t, err)
	return res
}

func (e *testEnv) requestOTP(t *testing.T, email string) string {
	t.Helper()
	_, err := e.svc.ForgotPassword(context.Background(), email)
	require.NoError(t, err)

	mail, ok := e.mailer.last("Password Reset OTP")
	require.True(t, ok, "otp email not sent")
	m := otpPattern.FindStringSubmatch(mail.Body)
	require.Len(t, m, 2, "otp not found in email body")
	return m[1]
}

func requireErrorType(t *testing.T, err error, want model.ErrorType) {
	t.Helper()
	require.Error(t, err)
	var typed customErrors.TypedError
	require.True(t, errors.As(err, &typed), "expected a typed error, got %v", err)
	require.Equal(t, want, typed.ErrorType(), "message: %s", typed.Error())
}
