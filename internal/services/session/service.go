// Package session resolves opaque session tokens against the user directory.
package session

import (
	"context"

	"github.com/bobmcallan/tether/internal/common"
	"github.com/bobmcallan/tether/internal/interfaces"
	"github.com/bobmcallan/tether/internal/models"
)

// Service implements SessionService backed by the directory client.
type Service struct {
	directory interfaces.DirectoryClient
	logger    *common.Logger
}

// NewService creates a new session service.
func NewService(directory interfaces.DirectoryClient, logger *common.Logger) *Service {
	return &Service{
		directory: directory,
		logger:    logger,
	}
}

// Resolve validates a session token. A missing token and an invalid token
// are distinct errors internally, but every directory-side failure collapses
// to ErrInvalidSession so callers learn nothing about why a token failed.
func (s *Service) Resolve(ctx context.Context, sessionToken string) (*models.UserIdentity, error) {
	if sessionToken == "" {
		return nil, models.ErrMissingSession
	}

	identity, err := s.directory.LookupUserBySession(ctx, sessionToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("session resolution failed")
		return nil, models.ErrInvalidSession
	}

	return identity, nil
}

// Compile-time check
var _ interfaces.SessionService = (*Service)(nil)
