package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// ChatMessage is a direct message between two users. Status only ever moves
// forward: sent -> delivered -> read.
type ChatMessage struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	SenderID   uuid.UUID     `json:"senderId" db:"sender_id"`
	ReceiverID uuid.UUID     `json:"receiverId" db:"receiver_id"`
	Body       string        `json:"body" db:"body"`
	Status     MessageStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"timestamp" db:"created_at"`
}

type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
