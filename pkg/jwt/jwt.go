package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultIssuer = "storefront-auth"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("expired token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrSecretNotSet     = errors.New("jwt secret not configured")
)

type Claims struct {
	Role string `json:"role"`
	Type string `json:"type"` // access or refresh
	jwt.RegisteredClaims
}

func (c *Claims) IsAccessToken() bool {
	return c.Type == TokenTypeAccess
}

func (c *Claims) IsRefreshToken() bool {
	return c.Type == TokenTypeRefresh
}

func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type Config struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer signs and verifies HS256 access and refresh tokens. Each token type
// has its own secret so a refresh token can never pass as an access token.
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrSecretNotSet
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// WithClock swaps the time source. Tests use it to mint expired tokens.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) AccessTTL() time.Duration  { return i.cfg.AccessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

func (i *Issuer) GenerateAccessToken(subject, role string) (string, error) {
	return i.generate(subject, role, TokenTypeAccess, i.cfg.AccessTTL, i.cfg.AccessSecret)
}

func (i *Issuer) GenerateRefreshToken(subject string) (string, error) {
	return i.generate(subject, RoleUser, TokenTypeRefresh, i.cfg.RefreshTTL, i.cfg.RefreshSecret)
}

func (i *Issuer) ValidateAccessToken(tokenString string) (*Claims, error) {
	return i.validate(tokenString, TokenTypeAccess, i.cfg.AccessSecret)
}

func (i *Issuer) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return i.validate(tokenString, TokenTypeRefresh, i.cfg.RefreshSecret)
}

func (i *Issuer) generate(subject, role, tokenType string, ttl time.Duration, secret string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	now := i.now()

	claims := &Claims{
		Role: role,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.cfg.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (i *Issuer) validate(tokenString, tokenType, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != tokenType {
		return nil, ErrInvalidTokenType
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
