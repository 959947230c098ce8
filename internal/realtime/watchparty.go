package realtime

import (
	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
)

type partyParticipant struct {
	UserID uuid.UUID `json:"userId"`
	IsHost bool      `json:"isHost"`
}

// watchParty is an ephemeral room with one authoritative host. Media
// selection and playback position flow strictly host -> members; host
// identity never changes for the room's lifetime.
type watchParty struct {
	hostID       uuid.UUID
	mediaType    string
	mediaID      int64
	videoID      *string
	participants []partyParticipant
}

func (wp *watchParty) has(userID uuid.UUID) bool {
	for _, p := range wp.participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// roomManager owns all watch-party rooms. Every operation is a silent no-op
// when the room does not exist, and host-only operations are silent no-ops
// for anyone but the recorded host.
type roomManager struct {
	rooms  map[string]*watchParty
	notify notifyFunc
}

// broadcast sends an event to every participant, optionally skipping one.
func (m *roomManager) broadcast(wp *watchParty, except uuid.UUID, event string, payload any) {
	for _, p := range wp.participants {
		if p.UserID == except {
			continue
		}
		m.notify(p.UserID, event, payload)
	}
}

// start creates the room with the caller as sole host-participant. Starting
// over an existing roomId replaces it.
func (m *roomManager) start(p RoomPayload) {
	m.rooms[p.RoomID] = &watchParty{
		hostID:       p.UserID,
		participants: []partyParticipant{{UserID: p.UserID, IsHost: true}},
	}
}

// close deletes the room (host only) and tells everyone in it.
func (m *roomManager) close(p RoomPayload) {
	wp, ok := m.rooms[p.RoomID]
	if !ok || wp.hostID != p.UserID {
		return
	}
	m.broadcast(wp, uuid.Nil, EventWatchPartyClosed, struct{}{})
	delete(m.rooms, p.RoomID)
}

func (m *roomManager) join(p RoomPayload) {
	wp, ok := m.rooms[p.RoomID]
	if !ok {
		return
	}
	if !wp.has(p.UserID) {
		wp.participants = append(wp.participants, partyParticipant{UserID: p.UserID})
	}
	m.broadcast(wp, uuid.Nil, EventUserJoined, models.UserJoinedEvent{UserID: p.UserID})
}

// leave removes the participant and tells the rest. The room is not deleted
// here even if it ends up empty; only disconnect reconciliation collects
// empty rooms.
func (m *roomManager) leave(p RoomPayload) {
	wp, ok := m.rooms[p.RoomID]
	if !ok {
		return
	}

	kept := wp.participants[:0:0]
	for _, pp := range wp.participants {
		if pp.UserID != p.UserID {
			kept = append(kept, pp)
		}
	}
	wp.participants = kept

	m.broadcast(wp, uuid.Nil, EventUserLeft, models.UserLeftEvent{UserID: p.UserID})
}

// selectMedia sets the shared media cursor (host only). Picking new media
// always clears any selected video.
func (m *roomManager) selectMedia(p SelectMediaPayload) {
	wp, ok := m.rooms[p.RoomID]
	if !ok || wp.hostID != p.UserID {
		return
	}
	wp.mediaType = p.MediaType
	wp.mediaID = p.MediaID
	wp.videoID = nil

	m.broadcast(wp, uuid.Nil, EventMediaSelected, models.MediaSelectedEvent{
		MediaType: p.MediaType,
		MediaID:   p.MediaID,
		VideoID:   nil,
	})
}

func (m *roomManager) selectVideo(p SelectVideoPayload) {
	wp, ok := m.rooms[p.RoomID]
	if !ok || wp.hostID != p.UserID {
		return
	}
	videoID := p.VideoID
	wp.videoID = &videoID

	m.broadcast(wp, uuid.Nil, EventVideoSelected, models.VideoSelectedEvent{VideoID: p.VideoID})
}

func (m *roomManager) closeVideo(p RoomPayload) {
	wp, ok := m.rooms[p.RoomID]
	if !ok || wp.hostID != p.UserID {
		return
	}
	wp.videoID = nil

	m.broadcast(wp, uuid.Nil, EventVideoClosed, struct{}{})
}

// sync relays the host's playback position to everyone but the host. The
// host's wall clock rides along so followers can correct for latency.
func (m *roomManager) sync(event string, p PlaybackSyncPayload) {
	wp, ok := m.rooms[p.RoomID]
	if !ok || wp.hostID != p.UserID {
		return
	}
	m.broadcast(wp, p.UserID, event, models.PlaybackSyncEvent{
		CurrentTime: p.CurrentTime,
		Timestamp:   p.Timestamp,
	})
}

// reconcile removes a vanished user from every room they were in, tells the
// remaining members, and collects rooms left empty.
func (m *roomManager) reconcile(userID uuid.UUID) {
	for roomID, wp := range m.rooms {
		if !wp.has(userID) {
			continue
		}

		kept := wp.participants[:0:0]
		for _, pp := range wp.participants {
			if pp.UserID != userID {
				kept = append(kept, pp)
			}
		}
		wp.participants = kept

		m.broadcast(wp, uuid.Nil, EventUserLeft, models.UserLeftEvent{UserID: userID, RoomID: roomID})

		if len(wp.participants) == 0 {
			delete(m.rooms, roomID)
		}
	}
}
