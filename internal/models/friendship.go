package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

type FriendRequest struct {
	ID         uuid.UUID           `json:"id" db:"id"`
	FromUserID uuid.UUID           `json:"from_user_id" db:"from_user_id"`
	ToUserID   uuid.UUID           `json:"to_user_id" db:"to_user_id"`
	Status     FriendRequestStatus `json:"status" db:"status"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" db:"updated_at"`
}

// Request DTOs
type SendFriendRequestDTO struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
}
