// Package linking orchestrates the OAuth account-linking flow.
//
// The flow is browser-driven: the user is redirected to the provider's
// authorize endpoint, comes back to the callback with an authorization
// code, and is then redirected to the site with the outcome in the query
// string. Success and failure are the same shape, a redirect target with
// either status= or error= set; the browser never sees a JSON error body.
package linking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/tether/internal/common"
	"github.com/bobmcallan/tether/internal/interfaces"
	"github.com/bobmcallan/tether/internal/models"
	"github.com/bobmcallan/tether/internal/secrets"
)

// StatusConnected is the success marker carried on the redirect.
const StatusConnected = "connected"

// Service implements LinkingService.
type Service struct {
	sessions interfaces.SessionService
	provider interfaces.ProviderClient
	store    interfaces.ConnectionStore
	codec    *secrets.Codec // nil when no cipher key is configured
	logger   *common.Logger

	siteURL      string
	authorizeURL string
	clientID     string
	redirectURI  string
	stateSecret  []byte
	stateExpiry  time.Duration
}

// NewService creates a new linking service. codec may be nil when the
// token cipher key is unconfigured; the flow then fails at the point of
// protection rather than at startup.
func NewService(
	sessions interfaces.SessionService,
	provider interfaces.ProviderClient,
	store interfaces.ConnectionStore,
	codec *secrets.Codec,
	config *common.Config,
	logger *common.Logger,
) *Service {
	return &Service{
		sessions:     sessions,
		provider:     provider,
		store:        store,
		codec:        codec,
		logger:       logger,
		siteURL:      strings.TrimRight(config.Auth.SiteURL, "/"),
		authorizeURL: config.Clients.Provider.AuthorizeURL,
		clientID:     config.Clients.Provider.ClientID,
		redirectURI:  config.Auth.RedirectURI(),
		stateSecret:  []byte(config.Auth.StateSecret),
		stateExpiry:  config.Auth.GetStateExpiry(),
	}
}

// StartURL builds the provider authorize redirect for a user. The state
// parameter is a short-lived signed token bound to the user, verified on
// the way back so a callback cannot be replayed against another session.
func (s *Service) StartURL(ownerID string) (string, error) {
	state, err := s.mintState(ownerID)
	if err != nil {
		return "", fmt.Errorf("failed to mint state: %w", err)
	}

	q := url.Values{}
	q.Set("client_id", s.clientID)
	q.Set("redirect_uri", s.redirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)

	return s.authorizeURL + "?" + q.Encode(), nil
}

// Complete runs the linking flow for a callback request. Every failure is
// converted to a redirect-encoded reason; nothing propagates past this
// boundary. A provider exchange that succeeded before a later step failed
// is not rolled back, only the local record may end up stale.
func (s *Service) Complete(ctx context.Context, sessionToken, code, state string) string {
	if code == "" {
		return s.failure("missing code")
	}
	if sessionToken == "" {
		return s.failure("missing session")
	}

	identity, err := s.sessions.Resolve(ctx, sessionToken)
	if err != nil {
		return s.failure("invalid session")
	}

	if state != "" {
		if err := s.verifyState(state, identity.UserID); err != nil {
			s.logger.Debug().Err(err).Str("owner_id", identity.UserID).Msg("state verification failed")
			return s.failure("invalid state")
		}
	}

	pair, err := s.provider.ExchangeCode(ctx, code, s.redirectURI)
	if err != nil {
		return s.failure(exchangeReason(err))
	}

	if s.codec == nil {
		s.logger.Error().Msg("token cipher key not configured")
		return s.failure("encryption key unavailable")
	}

	encAccess, err := s.codec.Protect(pair.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to protect access token")
		return s.failure("encryption failure")
	}
	encRefresh, err := s.codec.Protect(pair.RefreshToken)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to protect refresh token")
		return s.failure("encryption failure")
	}

	if _, err := s.store.Upsert(ctx, identity.UserID, encAccess, encRefresh); err != nil {
		s.logger.Error().Err(err).Str("owner_id", identity.UserID).Msg("failed to store connection")
		return s.failure("storage failure")
	}

	s.logger.Info().Str("owner_id", identity.UserID).Msg("account linked")
	return s.siteURL + "/?status=" + StatusConnected
}

// Status reports whether the owner has a stored connection.
func (s *Service) Status(ctx context.Context, ownerID string) (bool, time.Time, error) {
	conn, err := s.store.GetByOwner(ctx, ownerID)
	if err != nil {
		return false, time.Time{}, err
	}
	if conn == nil {
		return false, time.Time{}, nil
	}
	return true, conn.UpdatedAt, nil
}

// exchangeReason maps an exchange error to a browser-safe reason string.
// Provider descriptions are already human-readable; transport detail stays
// in the logs.
func exchangeReason(err error) string {
	var perr *models.ProviderError
	if errors.As(err, &perr) && perr.Description != "" {
		return perr.Description
	}
	return "provider unreachable"
}

func (s *Service) failure(reason string) string {
	return s.siteURL + "/?error=" + escapeReason(reason)
}

// escapeReason encodes a reason for a query string using %20 for spaces.
// url.Values.Encode would produce "+", which some site-side parsers leave
// literal when reading the value back.
func escapeReason(reason string) string {
	return strings.ReplaceAll(url.QueryEscape(reason), "+", "%20")
}

type stateClaims struct {
	jwt.RegisteredClaims
}

func (s *Service) mintState(ownerID string) (string, error) {
	now := time.Now()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.stateSecret)
}

func (s *Service) verifyState(state, ownerID string) error {
	token, err := jwt.ParseWithClaims(state, &stateClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.stateSecret, nil
	})
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid state token")
	}
	if claims.Subject != ownerID {
		return fmt.Errorf("state issued for a different user")
	}
	return nil
}

// Compile-time check
var _ interfaces.LinkingService = (*Service)(nil)
