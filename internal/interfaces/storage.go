package interfaces

import (
	"context"

	"github.com/bobmcallan/tether/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	ConnectionStore() ConnectionStore

	// Lifecycle
	Close() error
}

// ConnectionStore is the durable mapping from user identity to provider
// connection. It is the only component that writes with the elevated storage
// credential: connection rows are keyed by another user's identity, which the
// store's normal per-user access policy would deny.
type ConnectionStore interface {
	// GetByOwner returns the connection for a user, or nil when none exists.
	GetByOwner(ctx context.Context, ownerID string) (*models.Connection, error)

	// Upsert creates or replaces the single connection row for a user.
	// The write must be atomic per owner: two concurrent upserts for the same
	// owner leave one complete token pair, never an interleaved mix.
	Upsert(ctx context.Context, ownerID, encryptedAccess, encryptedRefresh string) (*models.Connection, error)

	// Delete removes a user's connection. No error when none exists.
	Delete(ctx context.Context, ownerID string) error
}
