package model

import "time"

// TokenType distinguishes the two credential classes carried in the
// token_type claim.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenManager signs and verifies bearer credentials.
type TokenManager interface {
	// Generate signs a token for the subject with the class-specific TTL.
	Generate(subject string, tokenType TokenType) (string, error)
	// Parse verifies signature, expiry and token type. It is pure and never
	// consults the blacklist.
	Parse(token string, expected TokenType) (subject string, err error)
	// Decode verifies the signature but skips claims validation, so expired
	// tokens can still be inspected for revocation.
	Decode(token string) (subject string, expiresAt time.Time, err error)
}

// PasswordHasher is an opaque one-way credential hash contract.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
	// Dummy returns a fixed valid digest used to equalize verification cost
	// when the account does not exist.
	Dummy() string
}
