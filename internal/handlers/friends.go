package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/auth"
	"github.com/user/cineparty-back/internal/friends"
	"github.com/user/cineparty-back/internal/models"
	"github.com/user/cineparty-back/internal/notifications"
	"github.com/user/cineparty-back/internal/realtime"
)

type FriendsHandler struct {
	repo          *friends.Repository
	users         *auth.Repository
	notifications *notifications.Repository
	notifier      *realtime.Notifier
	validator     *validator.Validate
}

func NewFriendsHandler(repo *friends.Repository, users *auth.Repository, notifs *notifications.Repository, notifier *realtime.Notifier) *FriendsHandler {
	return &FriendsHandler{
		repo:          repo,
		users:         users,
		notifications: notifs,
		notifier:      notifier,
		validator:     validator.New(),
	}
}

// SendRequest sends a friend request by username. The recipient gets a
// persisted notification plus a realtime push if they are online.
func (h *FriendsHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.SendFriendRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	target, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	friendReq, err := h.repo.SendRequest(r.Context(), userID, target.ID)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrCannotAddSelf):
			respondError(w, http.StatusBadRequest, "Cannot send friend request to yourself")
		case errors.Is(err, friends.ErrRequestExists):
			respondError(w, http.StatusConflict, "Friend request already sent")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to send friend request")
		}
		return
	}

	sender, err := h.users.GetUserByID(r.Context(), userID)
	senderName := "Someone"
	if err == nil && sender.Username != nil {
		senderName = *sender.Username
	}

	notif, err := h.notifications.Create(r.Context(), target.ID, "friend_request",
		fmt.Sprintf("%s sent you a friend request", senderName))
	if err == nil {
		h.notifier.NotifyUser(target.ID, realtime.EventNewNotification, notif)
	}

	respondJSON(w, http.StatusCreated, friendReq)
}

// AcceptRequest accepts a friend request; only the recipient may.
func (h *FriendsHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	friendReq, err := h.repo.AcceptRequest(r.Context(), requestID, userID)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrRequestNotFound):
			respondError(w, http.StatusNotFound, "Friend request not found")
		case errors.Is(err, friends.ErrNotRecipient):
			respondError(w, http.StatusForbidden, "Not the recipient of this request")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to accept request")
		}
		return
	}

	accepter, err := h.users.GetUserByID(r.Context(), userID)
	accepterName := "Someone"
	if err == nil && accepter.Username != nil {
		accepterName = *accepter.Username
	}

	notif, err := h.notifications.Create(r.Context(), friendReq.FromUserID, "friend_accept",
		fmt.Sprintf("%s accepted your friend request", accepterName))
	if err == nil {
		h.notifier.NotifyUser(friendReq.FromUserID, realtime.EventNewNotification, notif)
	}

	respondJSON(w, http.StatusOK, friendReq)
}

// DeclineRequest declines a friend request
func (h *FriendsHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	friendReq, err := h.repo.DeclineRequest(r.Context(), requestID, userID)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrRequestNotFound):
			respondError(w, http.StatusNotFound, "Friend request not found")
		case errors.Is(err, friends.ErrNotRecipient):
			respondError(w, http.StatusForbidden, "Not the recipient of this request")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to decline request")
		}
		return
	}

	respondJSON(w, http.StatusOK, friendReq)
}

// GetFriends returns all friends
func (h *FriendsHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	friendsList, err := h.repo.GetFriends(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get friends")
		return
	}

	if friendsList == nil {
		friendsList = []*models.User{}
	}

	respondJSON(w, http.StatusOK, friendsList)
}

// GetIncomingRequests returns pending incoming friend requests
func (h *FriendsHandler) GetIncomingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	requests, err := h.repo.GetIncomingRequests(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get requests")
		return
	}

	if requests == nil {
		requests = []*models.FriendRequest{}
	}

	respondJSON(w, http.StatusOK, requests)
}
