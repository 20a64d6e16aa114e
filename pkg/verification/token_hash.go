package verification

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

var ErrHashSecretNotConfigured = errors.New("token hash secret not configured")

// TokenHasher turns OTPs and one-time tokens into keyed digests so the raw
// values never reach the store. Digests are deterministic, which keeps
// lookups by verification token possible.
type TokenHasher struct {
	secret []byte
}

func NewTokenHasher(secret string) (*TokenHasher, error) {
	if secret == "" {
		return nil, ErrHashSecretNotConfigured
	}
	return &TokenHasher{secret: []byte(secret)}, nil
}

func (h *TokenHasher) Hash(value string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *TokenHasher) Verify(value, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(h.Hash(value)), []byte(storedHash)) == 1
}
