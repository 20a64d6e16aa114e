package validator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abisalde/storefront-auth/pkg/password"

	playground "github.com/go-playground/validator/v10"
)

var (
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrShortPassword = fmt.Errorf("password must be at least %d characters long", password.MinLength)
	ErrLongPassword  = fmt.Errorf("password must be at most %d bytes long", password.MaxLength)
)

const maxEmailLength = 254

var (
	validate     *playground.Validate
	validateOnce sync.Once
)

func instance() *playground.Validate {
	validateOnce.Do(func() {
		validate = playground.New(playground.WithRequiredStructEnabled())
	})
	return validate
}

func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return ErrInvalidEmail
	}
	if err := instance().Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks length only. The upper bound is bcrypt's input limit.
func ValidatePassword(pw string) error {
	if len([]rune(pw)) < password.MinLength {
		return ErrShortPassword
	}
	if len(pw) > password.MaxLength {
		return ErrLongPassword
	}
	return nil
}
