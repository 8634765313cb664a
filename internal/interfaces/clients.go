// Package interfaces defines service contracts for Tether
package interfaces

import (
	"context"

	"github.com/bobmcallan/tether/internal/models"
)

// DirectoryClient resolves session tokens against the external user
// directory. The directory owns identities and session validity; this client
// is read-only.
type DirectoryClient interface {
	// LookupUserBySession resolves a session token to the user it belongs to.
	// Returns an error when the directory rejects the token or the lookup
	// itself fails.
	LookupUserBySession(ctx context.Context, sessionToken string) (*models.UserIdentity, error)
}

// ProviderClient talks to the OAuth provider's token endpoint.
type ProviderClient interface {
	// ExchangeCode trades a one-time authorization code for provider tokens.
	// Exactly one attempt is made; authorization codes are single-use, so any
	// retry policy belongs to the caller.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*models.TokenPair, error)
}

// CompletionClient provides access to the generative completion service.
type CompletionClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
