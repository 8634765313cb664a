// Package chat gates prompts behind the linkage check and forwards them to
// the completion service.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/tether/internal/common"
	"github.com/bobmcallan/tether/internal/interfaces"
	"github.com/bobmcallan/tether/internal/models"
	"github.com/bobmcallan/tether/internal/secrets"
)

// personaPreamble frames every prompt before it reaches the completion
// service. The reply comes back to the caller untouched.
const personaPreamble = "You are Tether, a concise and helpful assistant. " +
	"Answer the user's message directly.\n\nUser message: "

// Service implements ChatService.
type Service struct {
	store      interfaces.ConnectionStore
	codec      *secrets.Codec // nil when no cipher key is configured
	completion interfaces.CompletionClient
	logger     *common.Logger
}

// NewService creates a new chat service.
func NewService(store interfaces.ConnectionStore, codec *secrets.Codec, completion interfaces.CompletionClient, logger *common.Logger) *Service {
	return &Service{
		store:      store,
		codec:      codec,
		completion: completion,
		logger:     logger,
	}
}

// Respond checks the owner's linkage and forwards the prompt, returning the
// completion text verbatim. Having a session is necessary but not
// sufficient; the caller must also hold a stored provider connection.
// Gate order is fixed: prompt validation, then linkage, then the upstream
// call, so an unlinked user never spends a completion request.
func (s *Service) Respond(ctx context.Context, ownerID, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt required", models.ErrBadRequest)
	}

	conn, err := s.store.GetByOwner(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("failed to read connection: %w", err)
	}
	if conn == nil {
		return "", models.ErrNotLinked
	}

	// Reveal the stored credential to confirm the linkage is intact before
	// spending an upstream call. The plaintext is not forwarded anywhere yet.
	if s.codec == nil {
		return "", models.ErrMissingKey
	}
	if _, err := s.codec.Reveal(conn.EncryptedAccessToken); err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("stored connection failed integrity check")
		return "", models.ErrIntegrity
	}

	if s.completion == nil {
		s.logger.Error().Msg("completion client not configured")
		return "", models.ErrUpstream
	}

	reply, err := s.completion.GenerateContent(ctx, personaPreamble+prompt)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("completion request failed")
		return "", models.ErrUpstream
	}

	return reply, nil
}

// Compile-time check
var _ interfaces.ChatService = (*Service)(nil)
