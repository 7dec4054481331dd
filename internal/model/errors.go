package model

import "errors"

var (
	// ErrNotFound is returned by stores when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized covers every authentication failure. Callers must not
	// attach information that distinguishes the cause.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUsernameTaken is returned when a signup collides with an existing username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidToken is returned for tokens with a bad signature, expired or
	// malformed claims, or an unexpected token type.
	ErrInvalidToken = errors.New("token is invalid")

	// ErrInvalidSubject indicates a caller bug: tokens must carry a non-empty subject.
	ErrInvalidSubject = errors.New("token subject must not be empty")

	// ErrMissingExpiry indicates a caller bug: revocation requires an expiry claim.
	ErrMissingExpiry = errors.New("token has no expiry claim")

	// ErrCounterRace is returned by a rate limit counter attempt that lost the
	// first-insert race for its key. The attempt can be retried.
	ErrCounterRace = errors.New("rate limit counter insert race")

	// ErrRaceExhausted is returned when the insert race was not resolved
	// within the bounded retry budget.
	ErrRaceExhausted = errors.New("rate limit counter race not resolved")

	// ErrInvalidUsername rejects signup usernames that fail validation.
	ErrInvalidUsername = errors.New("username must be 1-64 characters without whitespace")

	// ErrInvalidPassword rejects signup passwords that fail validation.
	ErrInvalidPassword = errors.New("password must be 8-128 characters without whitespace")
)
