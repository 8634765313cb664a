package server

import (
	"errors"
	"net/http"

	"github.com/bobmcallan/tether/internal/models"
)

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleChat handles POST /api/chat. The status taxonomy is fixed: 401 for
// anything session-related, 400 for a bad prompt, 403 for a missing
// linkage, 500 for everything upstream or internal.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	identity, err := s.app.SessionService.Resolve(r.Context(), s.sessionTokenFromRequest(r))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	reply, err := s.app.ChatService.Respond(r.Context(), identity.UserID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			WriteError(w, http.StatusBadRequest, "Prompt is required")
		case errors.Is(err, models.ErrNotLinked):
			WriteError(w, http.StatusForbidden, "No provider connection for this account")
		default:
			s.logger.Error().Err(err).Str("owner_id", identity.UserID).Msg("Chat request failed")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	WriteJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
