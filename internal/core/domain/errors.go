package domain

import "errors"

var (
	// ErrNoToken is returned when an authenticated call has no session token.
	ErrNoToken = errors.New("no token found")
	// ErrUnauthorized is returned when the optimizer rejects the token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUpstream wraps any other optimizer failure.
	ErrUpstream = errors.New("optimizer request failed")
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAuthDenied is returned when the platform reports an auth error.
	ErrAuthDenied = errors.New("authentication denied")
	// ErrInvalidCallback is returned for auth callbacks without a token.
	ErrInvalidCallback = errors.New("invalid auth callback")
)
