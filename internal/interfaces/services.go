// Package interfaces defines service contracts for Tether
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/tether/internal/models"
)

// SessionService resolves opaque session tokens to user identities
type SessionService interface {
	// Resolve validates a session token against the user directory.
	// Returns models.ErrMissingSession for an empty token and
	// models.ErrInvalidSession for anything the directory will not vouch for.
	Resolve(ctx context.Context, sessionToken string) (*models.UserIdentity, error)
}

// LinkingService orchestrates the OAuth account-linking flow
type LinkingService interface {
	// StartURL builds the provider authorize redirect for a user,
	// carrying a signed state parameter bound to that user.
	StartURL(ownerID string) (string, error)

	// Complete runs the full linking flow for a callback request and
	// returns the browser redirect target. Both success and failure are
	// encoded in the redirect query string; Complete never fails outward.
	Complete(ctx context.Context, sessionToken, code, state string) string

	// Status reports whether the owner has a stored connection and when
	// it was last written.
	Status(ctx context.Context, ownerID string) (bool, time.Time, error)
}

// ChatService gates and forwards prompts to the completion service
type ChatService interface {
	// Respond checks the owner's linkage and forwards the prompt to the
	// completion service, returning its text verbatim.
	Respond(ctx context.Context, ownerID, prompt string) (string, error)
}
