package app

import "errors"

var (
	// ErrEmailAlreadyExists is returned when registering a taken email.
	ErrEmailAlreadyExists = errors.New("email already registered")
	// ErrInvalidCredentials is returned on login with a bad email or password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned for missing, invalid or expired tokens.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrParametersMissing is returned when program generation is requested
	// before any coaching parameters were saved.
	ErrParametersMissing = errors.New("user parameters not found")
	// ErrInvalidInput is returned for malformed request payloads.
	ErrInvalidInput = errors.New("invalid input")
)
