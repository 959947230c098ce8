package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
	"github.com/user/cineparty-back/internal/notifications"
)

type NotificationsHandler struct {
	repo *notifications.Repository
}

func NewNotificationsHandler(repo *notifications.Repository) *NotificationsHandler {
	return &NotificationsHandler{repo: repo}
}

// List returns all notifications for the user, newest first.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	list, err := h.repo.ListForUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	if list == nil {
		list = []*models.Notification{}
	}

	respondJSON(w, http.StatusOK, list)
}

// MarkRead flags one notification as read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	notif, err := h.repo.MarkRead(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			respondError(w, http.StatusNotFound, "Notification not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	respondJSON(w, http.StatusOK, notif)
}
