package models

import "github.com/google/uuid"

// CallPeer is the caller/receiver identity attached to call signaling events.
type CallPeer struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

// Outbound realtime event payloads. Event names mirror the client protocol.

type MessageStatusUpdateEvent struct {
	MessageID uuid.UUID     `json:"messageId"`
	Status    MessageStatus `json:"status"`
}

type IncomingCallEvent struct {
	Caller   CallPeer `json:"caller"`
	Receiver CallPeer `json:"receiver"`
	CallID   string   `json:"callId"`
}

type CallAcceptedEvent struct {
	Receiver CallPeer `json:"receiver"`
	CallID   string   `json:"callId"`
}

type CallRejectedEvent struct {
	CallID string `json:"callId"`
}

type CallEndedEvent struct {
	CallID string `json:"callId"`
}

type UserLeftCallEvent struct {
	UserID uuid.UUID `json:"userId"`
	CallID string    `json:"callId"`
}

type ScreenShareEvent struct {
	Caller   CallPeer `json:"caller"`
	Receiver CallPeer `json:"receiver"`
	CallID   string   `json:"callId"`
}

type UserJoinedEvent struct {
	UserID uuid.UUID `json:"userId"`
}

type UserLeftEvent struct {
	UserID uuid.UUID `json:"userId"`
	RoomID string    `json:"roomId,omitempty"`
}

type MediaSelectedEvent struct {
	MediaType string  `json:"mediaType"`
	MediaID   int64   `json:"mediaId"`
	VideoID   *string `json:"videoId"`
}

type VideoSelectedEvent struct {
	VideoID string `json:"videoId"`
}

// PlaybackSyncEvent carries the host's playback position plus the host's
// wall clock so followers can correct for propagation latency themselves.
type PlaybackSyncEvent struct {
	CurrentTime float64 `json:"currentTime"`
	Timestamp   int64   `json:"timeStamp"`
}
