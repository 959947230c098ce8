package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/chat"
	"github.com/user/cineparty-back/internal/models"
)

type ChatHandler struct {
	repo *chat.Repository
}

func NewChatHandler(repo *chat.Repository) *ChatHandler {
	return &ChatHandler{repo: repo}
}

// History returns the paginated message history with one friend,
// oldest first within each page.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	friendID, err := uuid.Parse(r.PathValue("friendId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid friend ID")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.repo.History(r.Context(), userID, friendID, page, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}

	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	respondJSON(w, http.StatusOK, messages)
}
