package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
)

func newTestRoomManager() (*roomManager, *recorder) {
	rec := &recorder{}
	return &roomManager{rooms: make(map[string]*watchParty), notify: rec.notify}, rec
}

func TestStartCreatesRoomWithHost(t *testing.T) {
	m, _ := newTestRoomManager()
	host := uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})

	wp, ok := m.rooms["r1"]
	if !ok {
		t.Fatal("room should exist")
	}
	if wp.hostID != host {
		t.Fatalf("hostID = %v; want %v", wp.hostID, host)
	}
	if len(wp.participants) != 1 || !wp.participants[0].IsHost {
		t.Fatalf("participants = %+v; want host only", wp.participants)
	}
}

func TestStartOverExistingRoomReplacesIt(t *testing.T) {
	m, _ := newTestRoomManager()
	hostA, hostB := uuid.New(), uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: hostA})
	m.join(RoomPayload{RoomID: "r1", UserID: uuid.New()})
	m.start(RoomPayload{RoomID: "r1", UserID: hostB})

	wp := m.rooms["r1"]
	if wp.hostID != hostB || len(wp.participants) != 1 {
		t.Fatalf("restart should replace the room, got host %v with %d participants", wp.hostID, len(wp.participants))
	}
}

func TestJoinBroadcastsToEveryone(t *testing.T) {
	m, rec := newTestRoomManager()
	host, member := uuid.New(), uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.join(RoomPayload{RoomID: "r1", UserID: member})

	// UserJoined goes to all participants, joiner included.
	if got := rec.count(EventUserJoined); got != 2 {
		t.Fatalf("UserJoined count = %d; want 2", got)
	}
	if !m.rooms["r1"].has(member) {
		t.Fatal("member should be in the room")
	}
}

func TestJoinTwiceDoesNotDuplicate(t *testing.T) {
	m, _ := newTestRoomManager()
	host, member := uuid.New(), uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.join(RoomPayload{RoomID: "r1", UserID: member})
	m.join(RoomPayload{RoomID: "r1", UserID: member})

	if got := len(m.rooms["r1"].participants); got != 2 {
		t.Fatalf("participants = %d; want 2", got)
	}
}

func TestJoinUnknownRoomIsNoOp(t *testing.T) {
	m, rec := newTestRoomManager()

	m.join(RoomPayload{RoomID: "ghost", UserID: uuid.New()})

	if len(rec.events) != 0 || len(m.rooms) != 0 {
		t.Fatal("joining a missing room must be silent")
	}
}

func TestLeaveKeepsEmptyRoom(t *testing.T) {
	m, rec := newTestRoomManager()
	host := uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.leave(RoomPayload{RoomID: "r1", UserID: host})

	// Explicit leave never collects the room, even when empty; only
	// disconnect reconciliation does.
	if _, ok := m.rooms["r1"]; !ok {
		t.Fatal("room should survive an explicit leave")
	}
	if got := rec.count(EventUserLeft); got != 0 {
		t.Fatalf("userLeft count = %d; want 0 (nobody left to tell)", got)
	}
}

func TestCloseIsHostOnly(t *testing.T) {
	m, rec := newTestRoomManager()
	host, member := uuid.New(), uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.join(RoomPayload{RoomID: "r1", UserID: member})

	m.close(RoomPayload{RoomID: "r1", UserID: member})
	if _, ok := m.rooms["r1"]; !ok {
		t.Fatal("non-host close must be ignored")
	}

	m.close(RoomPayload{RoomID: "r1", UserID: host})
	if _, ok := m.rooms["r1"]; ok {
		t.Fatal("host close should delete the room")
	}
	if got := rec.count(EventWatchPartyClosed); got != 2 {
		t.Fatalf("watchPartyClosed count = %d; want 2", got)
	}
}

func TestSelectMediaIsHostOnlyAndClearsVideo(t *testing.T) {
	m, rec := newTestRoomManager()
	host, member := uuid.New(), uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.join(RoomPayload{RoomID: "r1", UserID: member})
	m.selectVideo(SelectVideoPayload{RoomID: "r1", UserID: host, VideoID: "trailer-1"})

	m.selectMedia(SelectMediaPayload{RoomID: "r1", UserID: member, MediaType: "movie", MediaID: 42})
	if m.rooms["r1"].mediaID != 0 {
		t.Fatal("non-host selectMedia must be ignored")
	}

	m.selectMedia(SelectMediaPayload{RoomID: "r1", UserID: host, MediaType: "movie", MediaID: 42})
	wp := m.rooms["r1"]
	if wp.mediaType != "movie" || wp.mediaID != 42 {
		t.Fatalf("media = %s/%d; want movie/42", wp.mediaType, wp.mediaID)
	}
	if wp.videoID != nil {
		t.Fatal("selecting new media must clear the selected video")
	}

	if got := rec.count(EventMediaSelected); got != 2 {
		t.Fatalf("mediaSelected count = %d; want 2 (both participants)", got)
	}
	for _, e := range rec.events {
		if e.event != EventMediaSelected {
			continue
		}
		sel := e.payload.(models.MediaSelectedEvent)
		if sel.VideoID != nil {
			t.Fatalf("mediaSelected videoId = %v; want nil", sel.VideoID)
		}
	}
}

func TestSelectAndCloseVideo(t *testing.T) {
	m, rec := newTestRoomManager()
	host := uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.selectVideo(SelectVideoPayload{RoomID: "r1", UserID: host, VideoID: "trailer-1"})

	wp := m.rooms["r1"]
	if wp.videoID == nil || *wp.videoID != "trailer-1" {
		t.Fatalf("videoID = %v; want trailer-1", wp.videoID)
	}
	if rec.count(EventVideoSelected) != 1 {
		t.Fatal("videoSelected should be broadcast")
	}

	m.closeVideo(RoomPayload{RoomID: "r1", UserID: host})
	if wp.videoID != nil {
		t.Fatal("closeVideo should clear the selection")
	}
	if rec.count(EventVideoClosed) != 1 {
		t.Fatal("videoClosed should be broadcast")
	}
}

func TestSyncExcludesHost(t *testing.T) {
	m, rec := newTestRoomManager()
	host, memberA, memberB := uuid.New(), uuid.New(), uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.join(RoomPayload{RoomID: "r1", UserID: memberA})
	m.join(RoomPayload{RoomID: "r1", UserID: memberB})

	before := len(rec.events)
	m.sync(EventSyncPlay, PlaybackSyncPayload{RoomID: "r1", UserID: host, CurrentTime: 12.5, Timestamp: 1700000000000})

	added := rec.events[before:]
	if len(added) != 2 {
		t.Fatalf("sync fan-out = %d; want 2 (members only)", len(added))
	}
	for _, e := range added {
		if e.userID == host {
			t.Fatal("host must not receive their own sync")
		}
		ps := e.payload.(models.PlaybackSyncEvent)
		if ps.CurrentTime != 12.5 || ps.Timestamp != 1700000000000 {
			t.Fatalf("sync payload = %+v", ps)
		}
	}
}

func TestSyncFromNonHostIsIgnored(t *testing.T) {
	m, rec := newTestRoomManager()
	host, member := uuid.New(), uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.join(RoomPayload{RoomID: "r1", UserID: member})

	before := len(rec.events)
	m.sync(EventSyncPause, PlaybackSyncPayload{RoomID: "r1", UserID: member, CurrentTime: 3})

	if len(rec.events) != before {
		t.Fatal("only the host's position is authoritative")
	}
}

func TestReconcileRemovesUserAndCollectsEmptyRooms(t *testing.T) {
	m, rec := newTestRoomManager()
	host, member := uuid.New(), uuid.New()

	m.start(RoomPayload{RoomID: "r1", UserID: host})
	m.join(RoomPayload{RoomID: "r1", UserID: member})
	m.start(RoomPayload{RoomID: "r2", UserID: member})

	before := len(rec.events)
	m.reconcile(member)

	// r1 keeps the host and is told; r2 is empty and collected.
	wp := m.rooms["r1"]
	if wp == nil || wp.has(member) {
		t.Fatal("member should be out of r1")
	}
	if _, ok := m.rooms["r2"]; ok {
		t.Fatal("empty room should be collected on reconcile")
	}

	added := rec.events[before:]
	if len(added) != 1 || added[0].userID != host || added[0].event != EventUserLeft {
		t.Fatalf("reconcile events = %+v; want one userLeft to host", added)
	}
	left := added[0].payload.(models.UserLeftEvent)
	if left.UserID != member || left.RoomID != "r1" {
		t.Fatalf("userLeft = %+v", left)
	}
}
