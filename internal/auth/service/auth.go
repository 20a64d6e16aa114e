package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abisalde/storefront-auth/internal/auth"
	"github.com/abisalde/storefront-auth/internal/auth/repository"
	"github.com/abisalde/storefront-auth/internal/configs"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/abisalde/storefront-auth/internal/utils/validator"
	"github.com/abisalde/storefront-auth/pkg/jwt"
	"github.com/abisalde/storefront-auth/pkg/logger"
	"github.com/abisalde/storefront-auth/pkg/mail"
	"github.com/abisalde/storefront-auth/pkg/password"
	"github.com/abisalde/storefront-auth/pkg/verification"
	"github.com/redis/go-redis/v9"
)

const (
	LoginStreamKey = "login_events"
	LoginGroup     = "login_event_group"
	loginStreamLen = 100000

	otpAttemptsPrefix = "otp_attempts:"
)

type LoginEvent struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
}

type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Increment(ctx context.Context, key string, expiration time.Duration) (int64, error)
	RawClient() *redis.Client
}

type AuthService struct {
	userRepo    repository.UserRepository
	cfg         *configs.Config
	cache       CacheService
	mailService mail.Mailer
	log         logger.Logger

	tokens    *jwt.Issuer
	passwords *password.Hasher
	digests   *verification.TokenHasher

	adminEmail        [32]byte
	adminPassword     [32]byte
	dummyPasswordHash string
	now               func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, cfg *configs.Config, cache CacheService, mailService mail.Mailer, log logger.Logger) (*AuthService, error) {
	tokens, err := jwt.NewIssuer(jwt.Config{
		Issuer:        cfg.JWT.Issuer,
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	digests, err := verification.NewTokenHasher(cfg.Auth.TokenHashSecret)
	if err != nil {
		return nil, err
	}

	passwords := password.NewHasher(cfg.Auth.BcryptCost)
	dummy, err := passwords.Hash("storefront-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("dummy password hash: %w", err)
	}

	return &AuthService{
		userRepo:          userRepo,
		cfg:               cfg,
		cache:             cache,
		mailService:       mailService,
		log:               log,
		tokens:            tokens,
		passwords:         passwords,
		digests:           digests,
		adminEmail:        sha256.Sum256([]byte(repository.NormalizeEmail(cfg.Admin.Email))),
		adminPassword:     sha256.Sum256([]byte(cfg.Admin.Password)),
		dummyPasswordHash: dummy,
		now:               time.Now,
	}, nil
}

// Tokens exposes the issuer so the route guards verify with the same keys.
func (s *AuthService) Tokens() *jwt.Issuer {
	return s.tokens
}

func (s *AuthService) Register(ctx context.Context, input model.RegisterInput) (*model.RegisterResponse, error) {
	name := strings.TrimSpace(input.Name)
	email := repository.NormalizeEmail(input.Email)

	if name == "" || email == "" || input.Password == "" {
		return nil, customErrors.MissingFields
	}
	if err := validator.ValidateEmail(email); err != nil {
		return nil, customErrors.InvalidEmail
	}
	if err := checkPassword(input.Password); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "register: lookup %s", email)
	}
	if exists {
		return nil, customErrors.EmailExists
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "register: hash password")
	}

	token, err := verification.GenerateToken(verification.TokenBytes)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "register: verification token")
	}

	user, err := s.userRepo.Create(ctx, model.NewUser{
		Name:                  name,
		Email:                 email,
		PasswordHash:          hash,
		VerificationTokenHash: s.digests.Hash(token),
	})
	if errors.Is(err, repository.ErrEmailExists) {
		return nil, customErrors.EmailExists
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "register: create user")
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)

	status := s.dispatch(ctx,
		s.welcomeEmail(user),
		s.verificationEmail(user, token),
	)

	return &model.RegisterResponse{
		ID:          user.ID,
		Message:     "User registered successfully. Please verify your email.",
		EmailStatus: status,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, input model.LoginInput) (*model.LoginResponse, error) {
	email := repository.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, customErrors.MissingFields
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		// keep the response time close to a wrong-password attempt
		_ = s.passwords.Check(input.Password, s.dummyPasswordHash)
		s.log.Debug(ctx, "login: unknown email")
		return nil, customErrors.InvalidCredentials
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "login: lookup user")
	}

	if err := s.passwords.Check(input.Password, user.PasswordHash); err != nil {
		s.log.Debug(ctx, "login: password mismatch", "user_id", user.ID, "ip", auth.GetIPFromContext(ctx))
		return nil, customErrors.InvalidCredentials
	}
	if user.IsSuspended() {
		return nil, customErrors.AccountSuspended
	}
	if s.cfg.Auth.RequireVerifiedEmail && !user.IsVerified {
		return nil, customErrors.EmailNotVerified
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "login: issue tokens")
	}

	if err := s.PublishLoginEvent(ctx, user.ID); err != nil {
		s.log.Warn(ctx, "failed to publish login event", "user_id", user.ID, "error", err)
	}

	return pair, nil
}

func (s *AuthService) AdminLogin(ctx context.Context, input model.LoginInput) (*model.LoginResponse, error) {
	email := repository.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, customErrors.MissingFields
	}

	emailDigest := sha256.Sum256([]byte(email))
	emailOK := subtle.ConstantTimeCompare(emailDigest[:], s.adminEmail[:]) == 1

	var passwordOK bool
	if s.cfg.Admin.PasswordHash != "" {
		passwordOK = password.CheckPasswordHash(input.Password, s.cfg.Admin.PasswordHash) == nil
	} else {
		passwordDigest := sha256.Sum256([]byte(input.Password))
		passwordOK = subtle.ConstantTimeCompare(passwordDigest[:], s.adminPassword[:]) == 1
	}

	if !emailOK || !passwordOK {
		s.log.Warn(ctx, "admin login rejected", "ip", auth.GetIPFromContext(ctx))
		return nil, customErrors.InvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(email, jwt.RoleAdmin)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "admin login: issue token")
	}

	s.log.Info(ctx, "admin logged in", "ip", auth.GetIPFromContext(ctx))
	return &model.LoginResponse{AccessToken: token}, nil
}

// RefreshToken re-reads the account so deleted or suspended users cannot
// mint new access tokens from an old refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*model.LoginResponse, error) {
	if refreshToken == "" {
		return nil, customErrors.RefreshTokenNeeded
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.log.Debug(ctx, "refresh token rejected", "error", err)
		return nil, customErrors.NotAuthorized
	}

	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, customErrors.NotAuthorized
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "refresh: lookup user")
	}
	if user.IsSuspended() {
		return nil, customErrors.NotAuthorized
	}

	access, err := s.tokens.GenerateAccessToken(user.ID, jwt.RoleUser)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "refresh: issue token")
	}
	return &model.LoginResponse{AccessToken: access}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*model.MessageResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, customErrors.InvalidVerifyToken
	}

	user, err := s.userRepo.GetByVerificationToken(ctx, s.digests.Hash(token))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, customErrors.InvalidVerifyToken
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "verify email: lookup token")
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, customErrors.InternalServerError(err, "verify email: mark %s", user.ID)
	}

	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return &model.MessageResponse{Message: "Email verified successfully"}, nil
}

// ResendVerification replaces the pending token, so earlier links stop working.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (*model.MessageResponse, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, customErrors.AlreadyVerified
	}

	token, err := verification.GenerateToken(verification.TokenBytes)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "resend verification: token")
	}
	if err := s.userRepo.SetVerificationToken(ctx, user.ID, s.digests.Hash(token)); err != nil {
		return nil, customErrors.InternalServerError(err, "resend verification: store token")
	}

	return &model.MessageResponse{
		Message:     "Verification email sent",
		EmailStatus: s.dispatch(ctx, s.verificationEmail(user, token)),
	}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*model.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, customErrors.UserNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "profile: lookup %s", userID)
	}
	public := user.Public()
	return &public, nil
}

func (s *AuthService) PublishLoginEvent(ctx context.Context, userID string) error {
	event := LoginEvent{
		UserID:    userID,
		Timestamp: s.now().UTC(),
		EventType: "user_last_login",
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal login event: %w", err)
	}

	_, err = s.cache.RawClient().XAdd(ctx, &redis.XAddArgs{
		Stream: LoginStreamKey,
		MaxLen: loginStreamLen,
		Values: map[string]interface{}{"event": eventData},
	}).Result()

	return err
}

func (s *AuthService) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return s.userRepo.UpdateLoginTime(ctx, userID, at)
}

func (s *AuthService) issuePair(userID string) (*model.LoginResponse, error) {
	access, err := s.tokens.GenerateAccessToken(userID, jwt.RoleUser)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) lookupByEmail(ctx context.Context, raw string) (*model.User, error) {
	email := repository.NormalizeEmail(raw)
	if email == "" {
		return nil, customErrors.MissingFields
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, customErrors.UserNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "lookup user by email")
	}
	return user, nil
}

func checkPassword(pw string) error {
	switch validator.ValidatePassword(pw) {
	case nil:
		return nil
	case validator.ErrLongPassword:
		return customErrors.LongPassword
	default:
		return customErrors.ShortPassword
	}
}
