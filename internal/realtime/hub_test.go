package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
)

// newTestHub wires a hub to in-memory doubles. Tests drive h.handle directly
// instead of running the loop goroutine, so everything stays synchronous.
func newTestHub(t *testing.T) (*Hub, *fakeChatStore, *recorder) {
	t.Helper()
	store := &fakeChatStore{}
	rec := &recorder{}
	h := NewHub(store, 30*time.Second)
	h.sink = rec
	return h, store, rec
}

func inbound(connID, method string, payload any) hubEvent {
	data, _ := json.Marshal(payload)
	return hubEvent{kind: evInbound, connID: connID, method: method, data: data}
}

func TestJoinAppRegistersPresenceAndCatchesUp(t *testing.T) {
	h, store, rec := newTestHub(t)
	sender, user := uuid.New(), uuid.New()
	store.Insert(h.ctx, sender, user, "while you were away")

	h.handle(inbound("conn-1", EventJoinApp, JoinAppPayload{UserID: user}))

	if !h.presence.online(user) {
		t.Fatal("user should be online after joinApp")
	}
	got := rec.forUser(user)
	if len(got) != 1 || got[0].event != EventMessageReceived {
		t.Fatalf("events = %+v; want one catch-up batch", got)
	}
}

func TestJoinAppWithNilUserIsDropped(t *testing.T) {
	h, _, _ := newTestHub(t)

	h.handle(inbound("conn-1", EventJoinApp, JoinAppPayload{}))

	if _, ok := h.presence.userFor("conn-1"); ok {
		t.Fatal("nil userId must not register presence")
	}
}

func TestSendMessageAcksPersistedMessage(t *testing.T) {
	h, _, _ := newTestHub(t)
	sender, receiver := uuid.New(), uuid.New()

	ev := inbound("conn-s", EventSendMessage, SendMessagePayload{
		SenderID: sender, ReceiverID: receiver, Body: "hello",
	})
	var ackData []byte
	var ackErr error
	ev.ack = func(data []byte, err error) { ackData, ackErr = data, err }

	h.handle(ev)

	if ackErr != nil {
		t.Fatalf("ack error = %v", ackErr)
	}
	var msg models.ChatMessage
	if err := json.Unmarshal(ackData, &msg); err != nil {
		t.Fatalf("ack payload: %v", err)
	}
	if msg.Body != "hello" || msg.Status != models.MessageSent {
		t.Fatalf("acked message = %+v", msg)
	}
}

func TestSendMessagePersistFailureAcksError(t *testing.T) {
	h, store, _ := newTestHub(t)
	store.insertErr = errPersistFailed

	ev := inbound("conn-s", EventSendMessage, SendMessagePayload{
		SenderID: uuid.New(), ReceiverID: uuid.New(), Body: "hello",
	})
	var ackErr error
	ev.ack = func(_ []byte, err error) { ackErr = err }

	h.handle(ev)

	if ackErr == nil {
		t.Fatal("the sender's RPC must fail when nothing was persisted")
	}
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	h, _, rec := newTestHub(t)

	h.handle(hubEvent{kind: evInbound, connID: "conn-1", method: EventCallUser, data: []byte("{not json")})

	if len(rec.events) != 0 || len(h.calls.ringing) != 0 {
		t.Fatal("malformed payloads must be silently dropped")
	}
}

func TestUnknownEventIsDropped(t *testing.T) {
	h, _, rec := newTestHub(t)

	h.handle(inbound("conn-1", "teleport", map[string]string{"to": "mars"}))

	if len(rec.events) != 0 {
		t.Fatal("unknown events must be silently dropped")
	}
}

func TestCallUserArmsRingTimer(t *testing.T) {
	store := &fakeChatStore{}
	rec := &recorder{}
	h := NewHub(store, 5*time.Millisecond)
	h.sink = rec

	caller, receiver := uuid.New(), uuid.New()
	h.handle(inbound("conn-c", EventJoinApp, JoinAppPayload{UserID: caller}))
	h.handle(inbound("conn-r", EventJoinApp, JoinAppPayload{UserID: receiver}))

	h.handle(inbound("conn-c", EventCallUser, CallSignalPayload{
		Caller: peer(caller), Receiver: peer(receiver), CallID: "c1",
	}))

	select {
	case ev := <-h.events:
		if ev.kind != evRingExpiry || ev.callID != "c1" {
			t.Fatalf("queued event = %+v; want ring expiry for c1", ev)
		}
		h.handle(ev)
	case <-time.After(time.Second):
		t.Fatal("ring timer never fired")
	}

	if len(h.calls.ringing) != 0 {
		t.Fatal("unanswered call should be gone after the timer")
	}
	if rec.count(EventCallEnded) != 2 {
		t.Fatal("both parties should hear callEnded")
	}
}

func TestScreenShareOriginResolvedFromConnection(t *testing.T) {
	h, _, rec := newTestHub(t)
	caller, receiver := uuid.New(), uuid.New()

	h.handle(inbound("conn-c", EventJoinApp, JoinAppPayload{UserID: caller}))
	h.handle(inbound("conn-r", EventJoinApp, JoinAppPayload{UserID: receiver}))

	signal := CallSignalPayload{Caller: peer(caller), Receiver: peer(receiver), CallID: "c1"}
	h.handle(inbound("conn-c", EventCallUser, signal))
	h.handle(inbound("conn-r", EventAcceptCall, signal))

	before := len(rec.events)
	h.handle(inbound("conn-c", EventScreenShareStarted, signal))

	added := rec.events[before:]
	if len(added) != 1 || added[0].userID != receiver {
		t.Fatalf("screen-share events = %+v; want one to receiver", added)
	}
}

// A user who is both in a watch party and on a call drops off: presence goes,
// the room hears userLeft, the call peer hears userLeftCall, and a ringing
// call from the same user is left for its timer.
func TestDisconnectReconciliation(t *testing.T) {
	h, _, rec := newTestHub(t)
	host, member, other := uuid.New(), uuid.New(), uuid.New()

	h.handle(inbound("conn-h", EventJoinApp, JoinAppPayload{UserID: host}))
	h.handle(inbound("conn-m", EventJoinApp, JoinAppPayload{UserID: member}))
	h.handle(inbound("conn-o", EventJoinApp, JoinAppPayload{UserID: other}))

	h.handle(inbound("conn-h", EventStartWatchParty, RoomPayload{RoomID: "r1", UserID: host}))
	h.handle(inbound("conn-m", EventJoinWatchParty, RoomPayload{RoomID: "r1", UserID: member}))

	signal := CallSignalPayload{Caller: peer(member), Receiver: peer(host), CallID: "c1"}
	h.handle(inbound("conn-m", EventCallUser, signal))
	h.handle(inbound("conn-h", EventAcceptCall, signal))

	h.handle(inbound("conn-m", EventCallUser, CallSignalPayload{
		Caller: peer(member), Receiver: peer(other), CallID: "c2",
	}))

	before := len(rec.events)
	h.handle(hubEvent{kind: evDisconnect, connID: "conn-m"})

	if h.presence.online(member) {
		t.Fatal("member should be offline")
	}
	if h.rooms.rooms["r1"].has(member) {
		t.Fatal("member should be out of the watch party")
	}
	if entry := h.calls.ongoing["c1"]; len(entry.participants) != 1 || entry.participants[0].ID != host {
		t.Fatalf("ongoing participants = %+v; want host only", entry.participants)
	}
	if _, ok := h.calls.ringing["c2"]; !ok {
		t.Fatal("ringing call must be left for its timer")
	}

	var sawUserLeft, sawUserLeftCall bool
	for _, e := range rec.events[before:] {
		switch e.event {
		case EventUserLeft:
			sawUserLeft = true
		case EventUserLeftCall:
			sawUserLeftCall = true
		}
	}
	if !sawUserLeft || !sawUserLeftCall {
		t.Fatalf("reconciliation events missing: userLeft=%v userLeftCall=%v", sawUserLeft, sawUserLeftCall)
	}
}

func TestDisconnectOfEvictedConnectionIsHarmless(t *testing.T) {
	h, _, _ := newTestHub(t)
	user := uuid.New()

	h.handle(inbound("conn-1", EventJoinApp, JoinAppPayload{UserID: user}))
	h.handle(inbound("conn-2", EventJoinApp, JoinAppPayload{UserID: user}))
	h.handle(inbound("conn-2", EventStartWatchParty, RoomPayload{RoomID: "r1", UserID: user}))

	// The stale connection's disconnect arrives after the rejoin.
	h.handle(hubEvent{kind: evDisconnect, connID: "conn-1"})

	if !h.presence.online(user) {
		t.Fatal("user must stay online on the new connection")
	}
	if _, ok := h.rooms.rooms["r1"]; !ok {
		t.Fatal("the rejoined user's room must be untouched")
	}
}

func TestNotifyUserReachesOnlineUserOnly(t *testing.T) {
	h, _, rec := newTestHub(t)
	online, offline := uuid.New(), uuid.New()
	h.handle(inbound("conn-1", EventJoinApp, JoinAppPayload{UserID: online}))

	h.handle(hubEvent{kind: evNotify, userID: online, event: EventNewNotification, payload: "x"})
	h.handle(hubEvent{kind: evNotify, userID: offline, event: EventNewNotification, payload: "x"})

	if got := rec.count(EventNewNotification); got != 1 {
		t.Fatalf("newNotification count = %d; want 1 (online user only)", got)
	}
}
