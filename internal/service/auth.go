package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/surrlabs/surr/internal/logger"
	"github.com/surrlabs/surr/internal/model"
)

// Auth orchestrates login, signup, refresh rotation and logout.
type Auth struct {
	userStore model.UserStore
	hasher    model.PasswordHasher
	tokens    *TokenService
	logger    *logger.Logger
}

func NewAuth(userStore model.UserStore, hasher model.PasswordHasher, tokens *TokenService, logger *logger.Logger) *Auth {
	return &Auth{
		userStore: userStore,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
	}
}

// Login verifies the credentials and mints a token pair. The password is
// verified exactly once per attempt, against the stored digest when the
// account exists and against a fixed dummy digest otherwise, so response
// time does not reveal account existence. The failure is a single generic
// ErrUnauthorized either way.
func (a *Auth) Login(ctx context.Context, username, password string) (TokenPair, error) {
	user, err := a.userStore.GetByUsername(ctx, username)
	found := err == nil
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return TokenPair{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	target := a.hasher.Dummy()
	if found {
		target = user.PasswordHash
	}
	valid := a.hasher.Verify(password, target)

	if !found || !valid {
		a.logger.Info("login rejected", "username", username)
		return TokenPair{}, model.ErrUnauthorized
	}

	pair, err := a.tokens.Issue(user.Username)
	if err != nil {
		return TokenPair{}, err
	}

	a.logger.Info("login succeeded", "username", username)
	return pair, nil
}

// Refresh rotates a presented refresh token: after signature and class
// checks it consults the blacklist (the replay check Verify omits), looks
// up the account, revokes the presented token and issues a new pair.
// Refresh tokens are single-use; the second presentation of the same token
// fails here on the blacklist check.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, model.ErrUnauthorized
	}

	subject, err := a.tokens.Verify(refreshToken, model.TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, model.ErrUnauthorized
	}

	revoked, err := a.tokens.IsRevoked(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if revoked {
		a.logger.Info("refresh rejected: token already revoked", "username", subject)
		return TokenPair{}, model.ErrUnauthorized
	}

	user, err := a.userStore.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return TokenPair{}, model.ErrUnauthorized
		}
		return TokenPair{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	if err := a.tokens.Revoke(ctx, refreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return a.tokens.Issue(user.Username)
}

// Logout revokes the presented tokens. Expired tokens revoke fine; only a
// malformed access token or a store failure propagates.
func (a *Auth) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return a.tokens.RevokeBoth(ctx, accessToken, refreshToken)
}

// Register creates a new account with a hashed password.
func (a *Auth) Register(ctx context.Context, username, password string) (model.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return model.User{}, err
	}

	digest, err := a.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	now := time.Now()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.User{}, err
	}

	a.logger.Info("user registered", "username", user.Username)
	return user, nil
}

func validateCredentials(username, password string) error {
	if username == "" || len(username) > 64 || containsSpace(username) {
		return model.ErrInvalidUsername
	}
	if len(password) < 8 || len(password) > 128 || containsSpace(password) {
		return model.ErrInvalidPassword
	}
	return nil
}

func containsSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
