// Package password wraps bcrypt behind the PasswordHasher contract.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/surrlabs/surr/internal/model"
)

// Hasher hashes and verifies user passwords with bcrypt.
type Hasher struct {
	cost  int
	dummy string
}

var _ model.PasswordHasher = (*Hasher)(nil)

// NewHasher creates a Hasher with the default bcrypt cost. The dummy digest
// is generated once here so login can always verify against a structurally
// valid hash, keeping wall-clock cost independent of account existence.
func NewHasher() (*Hasher, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing-protection"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dummy digest: %w", err)
	}
	return &Hasher{cost: bcrypt.DefaultCost, dummy: string(dummy)}, nil
}

// Hash returns a bcrypt digest of the plain password.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches the digest. bcrypt's comparison is
// constant-time over the derived key.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// Dummy returns the fixed digest used when no account matched.
func (h *Hasher) Dummy() string {
	return h.dummy
}
