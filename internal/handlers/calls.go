package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/auth"
	"github.com/user/cineparty-back/internal/calls"
)

type CallsHandler struct {
	media *calls.MediaService
	users *auth.Repository
}

func NewCallsHandler(media *calls.MediaService, users *auth.Repository) *CallsHandler {
	return &CallsHandler{media: media, users: users}
}

// MediaToken issues a LiveKit token for the call's media room. The room
// name is the call ID, so both sides of a call land in the same room.
func (h *CallsHandler) MediaToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	callID := r.PathValue("callId")
	if callID == "" {
		respondError(w, http.StatusBadRequest, "Missing call ID")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	username := userID.String()
	if user.Username != nil {
		username = *user.Username
	}

	token, err := h.media.GenerateToken(callID, userID.String(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate media token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"token": token,
		"url":   h.media.GetWebSocketURL(),
	})
}
