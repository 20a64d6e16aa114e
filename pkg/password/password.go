package password

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	MinLength = 8
	// MaxLength is the bcrypt input limit in bytes.
	MaxLength = 72
)

type Hasher struct {
	cost int
}

// NewHasher clamps cost into the range bcrypt accepts. Zero selects the
// library default.
func NewHasher(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int {
	return h.cost
}

func (h *Hasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(bytes), err
}

func (h *Hasher) Check(password, hash string) error {
	return CheckPasswordHash(password, hash)
}

func CheckPasswordHash(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
