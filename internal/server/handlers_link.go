package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/bobmcallan/tether/internal/models"
)

// handleLinkStart handles GET /api/link/start. It resolves the caller's
// session and redirects the browser to the provider's authorize endpoint
// with a state parameter bound to that user.
func (s *Server) handleLinkStart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	identity, err := s.app.SessionService.Resolve(r.Context(), s.sessionTokenFromRequest(r))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	target, err := s.app.LinkingService.StartURL(identity.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build authorize URL")
		WriteError(w, http.StatusInternalServerError, "Failed to start linking")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// handleLinkCallback handles GET /api/link/callback, the provider's
// redirect back to us. The caller is a browser navigation, so the outcome
// is always a redirect, never a JSON body.
func (s *Server) handleLinkCallback(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	target := s.app.LinkingService.Complete(
		r.Context(),
		s.sessionTokenFromRequest(r),
		q.Get("code"),
		q.Get("state"),
	)

	http.Redirect(w, r, target, http.StatusFound)
}

type linkStatusResponse struct {
	Linked    bool       `json:"linked"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// handleLinkStatus handles GET /api/link, reporting whether the caller has
// a stored provider connection. The front end uses this to decide whether
// to offer linking or chat.
func (s *Server) handleLinkStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	identity, err := s.app.SessionService.Resolve(r.Context(), s.sessionTokenFromRequest(r))
	if err != nil {
		if errors.Is(err, models.ErrMissingSession) || errors.Is(err, models.ErrInvalidSession) {
			WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	linked, updatedAt, err := s.app.LinkingService.Status(r.Context(), identity.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", identity.UserID).Msg("Failed to read link status")
		WriteError(w, http.StatusInternalServerError, "Failed to read link status")
		return
	}

	resp := linkStatusResponse{Linked: linked}
	if linked {
		resp.UpdatedAt = &updatedAt
	}
	WriteJSON(w, http.StatusOK, resp)
}
