package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/surrlabs/surr/internal/model"
)

// Claims represents JWT claims with the credential class in token_type.
type Claims struct {
	jwt.RegisteredClaims
	TokenType model.TokenType `json:"token_type"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a JWT token manager with the provided secret key and
// class-specific lifetimes.
func NewJWT(secretKey string, accessTTL, refreshTTL time.Duration) *JWT {
	return &JWT{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Generate signs a token for the subject. The expiry is now plus the TTL
// configured for the token class.
func (j *JWT) Generate(subject string, tokenType model.TokenType) (string, error) {
	if subject == "" {
		return "", model.ErrInvalidSubject
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl(tokenType))),
		},
		TokenType: tokenType,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// Parse verifies the signature, expiry and token class and returns the
// subject. Any failure collapses into ErrInvalidToken so callers cannot
// leak the cause.
func (j *JWT) Parse(tokenString string, expected model.TokenType) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc)
	if err != nil || !token.Valid {
		return "", model.ErrInvalidToken
	}
	if claims.TokenType != expected {
		return "", model.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", model.ErrInvalidToken
	}
	return claims.Subject, nil
}

// Decode checks the signature but skips claims validation, so expired
// tokens can still be revoked. Tokens without an expiry claim cannot be
// blacklisted and yield ErrMissingExpiry.
func (j *JWT) Decode(tokenString string) (string, time.Time, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, claims, j.keyFunc)
	if err != nil || !token.Valid {
		return "", time.Time{}, model.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return "", time.Time{}, model.ErrMissingExpiry
	}
	return claims.Subject, claims.ExpiresAt.Time, nil
}

func (j *JWT) ttl(tokenType model.TokenType) time.Duration {
	if tokenType == model.TokenTypeRefresh {
		return j.refreshTTL
	}
	return j.accessTTL
}

func (j *JWT) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
	}
	return j.secretKey, nil
}
