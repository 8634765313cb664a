package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the linking and gateway flows. Handlers map these to
// HTTP statuses; services wrap them with context via fmt.Errorf("%w").
var (
	// ErrBadRequest marks malformed caller input (missing code, empty prompt).
	ErrBadRequest = errors.New("bad request")

	// ErrMissingSession is returned when no session token was presented.
	ErrMissingSession = errors.New("session token required")

	// ErrInvalidSession covers both a rejected token and a failed directory
	// lookup. Callers must not be able to distinguish the two.
	ErrInvalidSession = errors.New("invalid session")

	// ErrNotLinked is returned when an authenticated user has no stored
	// provider connection.
	ErrNotLinked = errors.New("provider connection not found")

	// ErrMissingKey is returned when the token cipher key is not configured.
	ErrMissingKey = errors.New("token cipher key not configured")

	// ErrIntegrity is returned when a stored blob fails authentication on
	// reveal. Tampering, truncation, and a wrong key all land here.
	ErrIntegrity = errors.New("ciphertext integrity check failed")

	// ErrUpstream marks a completion-service failure. Detail stays in the
	// server log.
	ErrUpstream = errors.New("upstream completion failed")
)

// ProviderError is an error reported by the OAuth provider's token endpoint.
// Description is the provider-supplied human-readable reason.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// TransportError wraps a network or decoding failure talking to an external
// service.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
