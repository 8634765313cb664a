package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/tether/internal/common"
	"github.com/bobmcallan/tether/internal/interfaces"
	"github.com/bobmcallan/tether/internal/models"
)

// ConnectionStore persists provider connections keyed by owner. The record
// ID is the owner ID, so upserts are single-record operations and at most
// one connection can ever exist per owner.
type ConnectionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewConnectionStore(db *surrealdb.DB, logger *common.Logger) *ConnectionStore {
	return &ConnectionStore{
		db:     db,
		logger: logger,
	}
}

// GetByOwner returns the owner's connection, or nil when none exists.
func (s *ConnectionStore) GetByOwner(ctx context.Context, ownerID string) (*models.Connection, error) {
	record, err := surrealdb.Select[models.Connection](ctx, s.db, surrealmodels.NewRecordID("connection", ownerID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select connection: %w", err)
	}
	if record == nil || record.OwnerID == "" {
		return nil, nil
	}
	return record, nil
}

// Upsert writes the owner's connection, replacing any previous record.
// The whole record is replaced in one statement so concurrent links for
// the same owner settle on one complete token pair, never a mix.
func (s *ConnectionStore) Upsert(ctx context.Context, ownerID, encryptedAccess, encryptedRefresh string) (*models.Connection, error) {
	conn := &models.Connection{
		OwnerID:               ownerID,
		EncryptedAccessToken:  encryptedAccess,
		EncryptedRefreshToken: encryptedRefresh,
		UpdatedAt:             time.Now().UTC(),
	}

	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID("connection", ownerID),
		"record": conn,
	}

	if _, err := surrealdb.Query[[]models.Connection](ctx, s.db, sql, vars); err != nil {
		return nil, fmt.Errorf("failed to upsert connection: %w", err)
	}

	s.logger.Debug().Str("owner_id", ownerID).Msg("connection stored")
	return conn, nil
}

// Delete removes the owner's connection. Deleting a missing record is not
// an error.
func (s *ConnectionStore) Delete(ctx context.Context, ownerID string) error {
	_, err := surrealdb.Delete[models.Connection](ctx, s.db, surrealmodels.NewRecordID("connection", ownerID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no record")
}

// Compile-time check
var _ interfaces.ConnectionStore = (*ConnectionStore)(nil)
