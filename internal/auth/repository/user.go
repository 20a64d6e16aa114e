package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abisalde/storefront-auth/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidResetToken = errors.New("reset token invalid or already used")
	ErrInvalidOTP        = errors.New("otp invalid or already used")
	ErrInvalidCursor     = errors.New("invalid pagination cursor")
)

// UserRepository is the credential store. Token arguments are always digests.
type UserRepository interface {
	Create(ctx context.Context, input model.NewUser) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByVerificationToken(ctx context.Context, tokenHash string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	MarkVerified(ctx context.Context, id string) error
	SetVerificationToken(ctx context.Context, id, tokenHash string) error

	SetOTP(ctx context.Context, id, otpHash string, expiry time.Time) error
	ClearOTP(ctx context.Context, id string) error

	// ExchangeOTP replaces a live OTP with a reset grant in one conditional
	// write. It returns ErrInvalidOTP when the OTP no longer matches or has
	// expired, so an OTP is redeemed at most once.
	ExchangeOTP(ctx context.Context, id, otpHash string, now time.Time, tokenHash string, expiry time.Time) error
	// ConsumeResetToken overwrites the password only while the grant matches and
	// is unexpired, clearing it in the same write. It returns
	// ErrInvalidResetToken when nothing matched.
	ConsumeResetToken(ctx context.Context, id, tokenHash string, now time.Time, passwordHash string) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLoginTime(ctx context.Context, id string, at time.Time) error
	UpdateCart(ctx context.Context, id string, cart model.Cart) error
	UpdateStatus(ctx context.Context, id string, status model.UserStatus) error

	FindAllUsers(ctx context.Context, pagination *model.PaginationInput) (*model.UserPage, error)
}

const (
	defaultLimit = 50
	maxLimit     = 100
)

// NormalizeEmail is the canonical stored form: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePagination(pagination *model.PaginationInput) (limit int, after string) {
	limit = defaultLimit
	if pagination != nil {
		if pagination.Limit != nil && *pagination.Limit > 0 {
			limit = *pagination.Limit
			if limit > maxLimit {
				limit = maxLimit
			}
		}
		if pagination.After != nil {
			after = *pagination.After
		}
	}
	return limit, after
}

// buildUserPage expects up to limit+1 users; the extra one only signals
// that another page exists.
func buildUserPage(users []*model.User, limit int) *model.UserPage {
	page := &model.UserPage{Users: make([]model.PublicUser, 0, len(users))}

	if len(users) > limit {
		users = users[:limit]
		page.HasNextPage = true
	}

	for _, u := range users {
		page.Users = append(page.Users, u.Public())
	}

	if page.HasNextPage && len(users) > 0 {
		cursor := users[len(users)-1].ID
		page.NextCursor = &cursor
	}
	return page
}
