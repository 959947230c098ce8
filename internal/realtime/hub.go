package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
)

// errPersistFailed is the RPC-level reply when a send could not be
// persisted; the remote peer never sees a delivery error.
var errPersistFailed = errors.New("message not persisted")

// EventSink delivers one named event to a user's personal channel. The
// centrifuge node implements it in production; tests substitute a recorder.
type EventSink interface {
	Publish(userID uuid.UUID, event string, data any) error
}

// notifyFunc is how the managers reach the event dispatcher.
type notifyFunc func(userID uuid.UUID, event string, payload any)

type eventKind int

const (
	evInbound eventKind = iota
	evDisconnect
	evRingExpiry
	evNotify
)

// hubEvent is the single variant type flowing through the hub channel:
// client events, disconnects, ring-timer firings, and outward notify
// requests from the REST layer all serialize onto the same loop.
type hubEvent struct {
	kind eventKind

	// evInbound
	connID string
	method string
	data   json.RawMessage
	ack    func(data []byte, err error)

	// evRingExpiry
	callID string

	// evNotify
	userID  uuid.UUID
	event   string
	payload any
}

// Hub is the coordination core. One goroutine (Run) consumes the event
// channel and is the only writer of the presence, call, and room maps, so
// the managers run lock-free.
type Hub struct {
	sink EventSink

	presence *presenceRegistry
	chat     *deliveryTracker
	calls    *callManager
	rooms    *roomManager

	events      chan hubEvent
	ringTimeout time.Duration

	ctx context.Context
}

func NewHub(store ChatStore, ringTimeout time.Duration) *Hub {
	h := &Hub{
		presence:    newPresenceRegistry(),
		events:      make(chan hubEvent, 256),
		ringTimeout: ringTimeout,
		ctx:         context.Background(),
	}
	h.chat = &deliveryTracker{store: store, presence: h.presence, notify: h.dispatchEvent}
	h.calls = &callManager{
		ringing:        make(map[string]callEntry),
		ongoing:        make(map[string]callEntry),
		presence:       h.presence,
		notify:         h.dispatchEvent,
		scheduleExpiry: h.scheduleRingExpiry,
	}
	h.rooms = &roomManager{rooms: make(map[string]*watchParty), notify: h.dispatchEvent}
	return h
}

// Run processes events until ctx is cancelled. Store calls execute inline,
// so one slow persistence call delays the loop rather than racing it.
func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			h.handle(ev)
		}
	}
}

// HandleRPC is called by the transport for every inbound client event.
// Events from one connection arrive and are processed in order.
func (h *Hub) HandleRPC(connID, method string, data []byte, ack func(data []byte, err error)) {
	h.events <- hubEvent{kind: evInbound, connID: connID, method: method, data: data, ack: ack}
}

// HandleDisconnect is called by the transport when a connection drops.
func (h *Hub) HandleDisconnect(connID string) {
	h.events <- hubEvent{kind: evDisconnect, connID: connID}
}

// NotifyUser is the one capability exposed to the layers outside this core:
// best-effort, at-most-once delivery to a currently-connected user.
func (h *Hub) NotifyUser(userID uuid.UUID, event string, payload any) {
	h.events <- hubEvent{kind: evNotify, userID: userID, event: event, payload: payload}
}

func (h *Hub) scheduleRingExpiry(callID string) {
	time.AfterFunc(h.ringTimeout, func() {
		h.events <- hubEvent{kind: evRingExpiry, callID: callID}
	})
}

func (h *Hub) handle(ev hubEvent) {
	switch ev.kind {
	case evInbound:
		h.dispatch(ev)
	case evDisconnect:
		h.reconcile(ev.connID)
	case evRingExpiry:
		h.calls.handleRingExpiry(ev.callID)
	case evNotify:
		h.dispatchEvent(ev.userID, ev.event, ev.payload)
	}
}

// dispatchEvent pushes a named event to a user's connection if one exists;
// offline targets are a silent no-op.
func (h *Hub) dispatchEvent(userID uuid.UUID, event string, payload any) {
	if _, ok := h.presence.resolve(userID); !ok {
		return
	}
	if err := h.sink.Publish(userID, event, payload); err != nil {
		log.Printf("[realtime] failed to publish %s to %s: %v", event, userID, err)
	}
}

// dispatch decodes one inbound event and routes it to its manager. Unknown
// events and malformed payloads are dropped; there is no error channel back
// to the client.
func (h *Hub) dispatch(ev hubEvent) {
	switch ev.method {
	case EventJoinApp:
		var p JoinAppPayload
		if !decode(ev, &p) || p.UserID == uuid.Nil {
			return
		}
		h.presence.join(p.UserID, ev.connID)
		h.chat.catchUp(h.ctx, p.UserID)

	case EventSendMessage:
		var p SendMessagePayload
		if !decode(ev, &p) {
			return
		}
		acked := false
		h.chat.send(h.ctx, p, func(msg *models.ChatMessage) {
			if ev.ack == nil {
				return
			}
			acked = true
			data, err := json.Marshal(msg)
			ev.ack(data, err)
		})
		if !acked && ev.ack != nil {
			ev.ack(nil, errPersistFailed)
		}

	case EventMarkAsRead:
		var p MarkAsReadPayload
		if !decode(ev, &p) {
			return
		}
		h.chat.markRead(h.ctx, p)

	case EventCallUser:
		var p CallSignalPayload
		if !decode(ev, &p) {
			return
		}
		h.calls.callUser(p)

	case EventAcceptCall:
		var p CallSignalPayload
		if !decode(ev, &p) {
			return
		}
		h.calls.acceptCall(p)

	case EventRejectCall:
		var p CallSignalPayload
		if !decode(ev, &p) {
			return
		}
		h.calls.rejectCall(p)

	case EventEndCall:
		var p EndCallPayload
		if !decode(ev, &p) {
			return
		}
		h.calls.endCall(p.CallID)

	case EventLeaveCall:
		var p LeaveCallPayload
		if !decode(ev, &p) {
			return
		}
		h.calls.leaveCall(p)

	case EventWebRTCOffer:
		var p WebRTCOfferPayload
		if !decode(ev, &p) {
			return
		}
		h.calls.relay(p.Receiver.ID, EventWebRTCOffer, p)

	case EventWebRTCAnswer:
		var p WebRTCAnswerPayload
		if !decode(ev, &p) {
			return
		}
		h.calls.relay(p.Receiver.ID, EventWebRTCAnswer, p)

	case EventICECandidate:
		var p ICECandidatePayload
		if !decode(ev, &p) {
			return
		}
		h.calls.relay(p.Receiver.ID, EventICECandidate, p)

	case EventScreenShareStarted, EventScreenShareStopped:
		var p CallSignalPayload
		if !decode(ev, &p) {
			return
		}
		origin, ok := h.presence.userFor(ev.connID)
		if !ok {
			return
		}
		h.calls.screenShare(origin, ev.method, p)

	case EventStartWatchParty:
		var p RoomPayload
		if !decode(ev, &p) {
			return
		}
		h.rooms.start(p)

	case EventCloseWatchParty:
		var p RoomPayload
		if !decode(ev, &p) {
			return
		}
		h.rooms.close(p)

	case EventJoinWatchParty:
		var p RoomPayload
		if !decode(ev, &p) {
			return
		}
		h.rooms.join(p)

	case EventLeaveWatchParty:
		var p RoomPayload
		if !decode(ev, &p) {
			return
		}
		h.rooms.leave(p)

	case EventSelectMedia:
		var p SelectMediaPayload
		if !decode(ev, &p) {
			return
		}
		h.rooms.selectMedia(p)

	case EventSelectVideo:
		var p SelectVideoPayload
		if !decode(ev, &p) {
			return
		}
		h.rooms.selectVideo(p)

	case EventCloseVideo:
		var p RoomPayload
		if !decode(ev, &p) {
			return
		}
		h.rooms.closeVideo(p)

	case EventSyncPlay, EventSyncPause:
		var p PlaybackSyncPayload
		if !decode(ev, &p) {
			return
		}
		h.rooms.sync(ev.method, p)

	default:
		log.Printf("[realtime] dropping unknown event %q from %s", ev.method, ev.connID)
	}
}

// reconcile cleans up after a connection that vanished without an orderly
// exit: presence first (it resolves who died), then rooms, then calls.
func (h *Hub) reconcile(connID string) {
	userID, ok := h.presence.removeConn(connID)
	if !ok {
		// Never joined, or already cleaned up after a rejoin.
		return
	}
	h.rooms.reconcile(userID)
	h.calls.reconcile(userID)
}

func decode(ev hubEvent, dst any) bool {
	if err := json.Unmarshal(ev.data, dst); err != nil {
		log.Printf("[realtime] bad %s payload from %s: %v", ev.method, ev.connID, err)
		return false
	}
	return true
}
