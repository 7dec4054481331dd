package service

import (
	"context"
	"fmt"

	"github.com/surrlabs/surr/internal/logger"
	"github.com/surrlabs/surr/internal/model"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues, verifies and revokes bearer credentials. It composes
// the TokenManager with the BlacklistStore; verification stays pure while
// revocation state lives in the store.
type TokenService struct {
	manager   model.TokenManager
	blacklist model.BlacklistStore
	logger    *logger.Logger
}

func NewTokenService(manager model.TokenManager, blacklist model.BlacklistStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, blacklist: blacklist, logger: logger}
}

// Issue mints a fresh access/refresh pair for the subject.
func (s *TokenService) Issue(subject string) (TokenPair, error) {
	access, err := s.manager.Generate(subject, model.TokenTypeAccess)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, err := s.manager.Generate(subject, model.TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature, expiry and class and returns the subject. It
// deliberately does not consult the blacklist; callers check revocation
// where replay matters.
func (s *TokenService) Verify(token string, expected model.TokenType) (string, error) {
	return s.manager.Parse(token, expected)
}

// IsRevoked reports whether the token has been blacklisted.
func (s *TokenService) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := s.blacklist.Exists(ctx, token)
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return revoked, nil
}

// Revoke blacklists the token until its natural expiry. The token's
// signature must verify, but an already-expired token is still revocable.
// Revoking an already-blacklisted token is a no-op.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	_, expiresAt, err := s.manager.Decode(token)
	if err != nil {
		return err
	}

	return s.blacklist.Add(ctx, token, expiresAt)
}

// RevokeBoth revokes the access token and, when present, the refresh token.
// A malformed or stale refresh token is skipped silently so logout cannot
// fail on a rotten cookie; store failures still propagate.
func (s *TokenService) RevokeBoth(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.Revoke(ctx, accessToken); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}

	_, expiresAt, err := s.manager.Decode(refreshToken)
	if err != nil {
		s.logger.Debug("skipping revocation of undecodable refresh token", "error", err.Error())
		return nil
	}

	return s.blacklist.Add(ctx, refreshToken, expiresAt)
}
