package model

import (
	"fmt"
	"time"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "Active"
	UserStatusInactive  UserStatus = "Inactive"
	UserStatusSuspended UserStatus = "Suspended"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

func ParseUserStatus(v string) (UserStatus, error) {
	s := UserStatus(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown user status %q", v)
	}
	return s, nil
}

// User is the persisted account record. The token fields hold HMAC digests,
// never the raw values that were mailed or returned to the client.
type User struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	IsVerified        bool       `json:"isVerified"`
	VerificationToken *string    `json:"-"`
	ResetToken        *string    `json:"-"`
	ResetTokenExpiry  *time.Time `json:"-"`
	OTP               *string    `json:"-"`
	OTPExpiry         *time.Time `json:"-"`
	Cart              Cart       `json:"cartData"`
	Status            UserStatus `json:"status"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (u *User) IsSuspended() bool {
	return u.Status == UserStatusSuspended
}

func (u *User) HasPendingOTP() bool {
	return u.OTP != nil && u.OTPExpiry != nil
}

func (u *User) HasResetGrant() bool {
	return u.ResetToken != nil && u.ResetTokenExpiry != nil
}

// PublicUser is the outward view of a User.
type PublicUser struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	IsVerified  bool       `json:"isVerified"`
	Status      UserStatus `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		IsVerified:  u.IsVerified,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// NewUser carries what the store needs to create an account.
type NewUser struct {
	Name                  string
	Email                 string
	PasswordHash          string
	VerificationTokenHash string
}

type PaginationInput struct {
	After *string
	Limit *int
}

type UserPage struct {
	Users       []PublicUser `json:"users"`
	NextCursor  *string      `json:"nextCursor"`
	HasNextPage bool         `json:"hasNextPage"`
}
