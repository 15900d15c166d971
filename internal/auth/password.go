package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher is the credential codec: salted, cost-factored bcrypt.
type PasswordHasher struct {
	cost int
}

var ErrPasswordInvalid = errors.New("auth: password cannot be hashed")

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Cost() int { return h.cost }

// Hash fails only for input bcrypt cannot encode (over 72 bytes).
func (h PasswordHasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", errors.Join(ErrPasswordInvalid, err)
	}
	return string(b), nil
}

// Verify reports whether secret matches digest. Malformed digests are a
// mismatch, not an error.
func (h PasswordHasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
