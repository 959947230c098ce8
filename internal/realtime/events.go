package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
)

// Inbound event names (client -> server).
const (
	EventJoinApp             = "joinApp"
	EventSendMessage         = "sendMessage"
	EventMarkAsRead          = "markAsRead"
	EventCallUser            = "callUser"
	EventAcceptCall          = "acceptCall"
	EventRejectCall          = "rejectCall"
	EventEndCall             = "endCall"
	EventLeaveCall           = "leaveCall"
	EventWebRTCOffer         = "webrtc-offer"
	EventWebRTCAnswer        = "webrtc-answer"
	EventICECandidate        = "ice-candidate"
	EventScreenShareStarted  = "screen-sharing-started"
	EventScreenShareStopped  = "screen-sharing-stopped"
	EventStartWatchParty     = "startWatchParty"
	EventCloseWatchParty     = "closeWatchParty"
	EventJoinWatchParty      = "joinWatchParty"
	EventLeaveWatchParty     = "leaveWatchParty"
	EventSelectMedia         = "selectMedia"
	EventSelectVideo         = "selectVideo"
	EventCloseVideo          = "closeVideo"
	EventSyncPlay            = "sync-play"
	EventSyncPause           = "sync-pause"
)

// Outbound event names (server -> client).
const (
	EventMessageReceived     = "messageReceived"
	EventMessageStatusUpdate = "messageStatusUpdate"
	EventIncomingCall        = "incomingCall"
	EventCallAccepted        = "callAccepted"
	EventCallRejected        = "callRejected"
	EventCallEnded           = "callEnded"
	EventUserLeftCall        = "userLeftCall"
	EventWatchPartyClosed    = "watchPartyClosed"
	EventUserJoined          = "UserJoined"
	EventUserLeft            = "userLeft"
	EventMediaSelected       = "mediaSelected"
	EventVideoSelected       = "videoSelected"
	EventVideoClosed         = "videoClosed"
	EventNewNotification     = "newNotification"
)

// Inbound payloads. One struct per event kind; decoded at the hub boundary.

type JoinAppPayload struct {
	UserID uuid.UUID `json:"userId"`
}

type SendMessagePayload struct {
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Body       string    `json:"body"`
}

type MarkAsReadPayload struct {
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
}

type CallSignalPayload struct {
	Caller   models.CallPeer `json:"caller"`
	Receiver models.CallPeer `json:"receiver"`
	CallID   string          `json:"callId"`
}

type EndCallPayload struct {
	CallID string `json:"callId"`
}

type LeaveCallPayload struct {
	UserID uuid.UUID `json:"userId"`
	CallID string    `json:"callId"`
}

// WebRTC envelopes are relayed opaque; the SDP/candidate blobs are never
// inspected here.
type WebRTCOfferPayload struct {
	Offer    json.RawMessage `json:"offer"`
	CallID   string          `json:"callId"`
	Sender   models.CallPeer `json:"sender"`
	Receiver models.CallPeer `json:"receiver"`
}

type WebRTCAnswerPayload struct {
	Answer   json.RawMessage `json:"answer"`
	Receiver models.CallPeer `json:"receiver"`
}

type ICECandidatePayload struct {
	Candidate json.RawMessage `json:"candidate"`
	Receiver  models.CallPeer `json:"receiver"`
	CallID    string          `json:"callId"`
}

type RoomPayload struct {
	RoomID string    `json:"roomId"`
	UserID uuid.UUID `json:"userId"`
}

type SelectMediaPayload struct {
	RoomID    string    `json:"roomId"`
	UserID    uuid.UUID `json:"userId"`
	MediaType string    `json:"mediaType"`
	MediaID   int64     `json:"mediaId"`
}

type SelectVideoPayload struct {
	RoomID  string    `json:"roomId"`
	UserID  uuid.UUID `json:"userId"`
	VideoID string    `json:"videoId"`
}

type PlaybackSyncPayload struct {
	RoomID      string    `json:"roomId"`
	UserID      uuid.UUID `json:"userId"`
	CurrentTime float64   `json:"currentTime"`
	Timestamp   int64     `json:"timeStamp"`
}
