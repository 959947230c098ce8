package realtime

import (
	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
)

// callEntry holds the participant set of a call. The base protocol is fixed
// at two parties (caller first), but participants are kept as a slice so
// leave/disconnect can shrink the set the same way for both phases.
type callEntry struct {
	participants []models.CallPeer
}

func (e callEntry) contains(userID uuid.UUID) bool {
	for _, p := range e.participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// callManager owns the call lifecycle. A callId lives in at most one of the
// two maps at a time: ringing until answered, ongoing afterwards.
type callManager struct {
	ringing map[string]callEntry
	ongoing map[string]callEntry

	presence *presenceRegistry
	notify   notifyFunc

	// scheduleExpiry arms the ring timeout for a callId; the firing must be
	// routed back onto the hub loop as a ring-expiry event.
	scheduleExpiry func(callID string)
}

// callUser starts ringing. If the receiver is not connected the request is
// silently dropped; the caller learns nothing.
func (m *callManager) callUser(p CallSignalPayload) {
	if !m.presence.online(p.Receiver.ID) {
		return
	}

	m.ringing[p.CallID] = callEntry{participants: []models.CallPeer{p.Caller, p.Receiver}}
	m.notify(p.Receiver.ID, EventIncomingCall, models.IncomingCallEvent{
		Caller:   p.Caller,
		Receiver: p.Receiver,
		CallID:   p.CallID,
	})
	m.scheduleExpiry(p.CallID)
}

// handleRingExpiry fires when the ring timer elapses. State is re-checked
// here rather than cancelling the timer: if the call was answered or already
// torn down in the meantime, the firing is a no-op.
func (m *callManager) handleRingExpiry(callID string) {
	entry, ok := m.ringing[callID]
	if !ok {
		return
	}
	if _, answered := m.ongoing[callID]; answered {
		return
	}

	delete(m.ringing, callID)
	for _, p := range entry.participants {
		m.notify(p.ID, EventCallEnded, models.CallEndedEvent{CallID: callID})
	}
}

// acceptCall promotes the call to ongoing. The ongoing entry is created from
// the event payload even when no ringing record exists for the callId; the
// protocol has always allowed that and clients rely on it.
func (m *callManager) acceptCall(p CallSignalPayload) {
	m.notify(p.Caller.ID, EventCallAccepted, models.CallAcceptedEvent{
		Receiver: p.Receiver,
		CallID:   p.CallID,
	})
	delete(m.ringing, p.CallID)
	m.ongoing[p.CallID] = callEntry{participants: []models.CallPeer{p.Caller, p.Receiver}}
}

// rejectCall only informs the caller. The ringing entry is left in place; the
// ring timer (or an explicit endCall) is what clears it.
func (m *callManager) rejectCall(p CallSignalPayload) {
	m.notify(p.Caller.ID, EventCallRejected, models.CallRejectedEvent{CallID: p.CallID})
}

// endCall tears the call down from whichever phase holds it, ongoing first.
func (m *callManager) endCall(callID string) {
	if entry, ok := m.ongoing[callID]; ok {
		delete(m.ongoing, callID)
		for _, p := range entry.participants {
			m.notify(p.ID, EventCallEnded, models.CallEndedEvent{CallID: callID})
		}
		return
	}
	if entry, ok := m.ringing[callID]; ok {
		delete(m.ringing, callID)
		for _, p := range entry.participants {
			m.notify(p.ID, EventCallEnded, models.CallEndedEvent{CallID: callID})
		}
	}
}

// leaveCall removes one participant from an ongoing call and tells the rest.
// The entry itself survives until it has no participants left.
func (m *callManager) leaveCall(p LeaveCallPayload) {
	entry, ok := m.ongoing[p.CallID]
	if !ok {
		return
	}

	remaining := entry.participants[:0:0]
	for _, peer := range entry.participants {
		if peer.ID != p.UserID {
			remaining = append(remaining, peer)
		}
	}

	for _, peer := range remaining {
		m.notify(peer.ID, EventUserLeftCall, models.UserLeftCallEvent{
			UserID: p.UserID,
			CallID: p.CallID,
		})
	}

	if len(remaining) == 0 {
		delete(m.ongoing, p.CallID)
	} else {
		m.ongoing[p.CallID] = callEntry{participants: remaining}
	}
}

// relay forwards a media-negotiation envelope to one user, unvalidated
// against any call record. Absent targets are dropped.
func (m *callManager) relay(receiverID uuid.UUID, event string, payload any) {
	m.notify(receiverID, event, payload)
}

// screenShare fans a start/stop notice out to every ongoing-call participant
// except the originator.
func (m *callManager) screenShare(originID uuid.UUID, event string, p CallSignalPayload) {
	entry, ok := m.ongoing[p.CallID]
	if !ok {
		return
	}
	for _, peer := range entry.participants {
		if peer.ID == originID {
			continue
		}
		m.notify(peer.ID, event, models.ScreenShareEvent{
			Caller:   p.Caller,
			Receiver: p.Receiver,
			CallID:   p.CallID,
		})
	}
}

// reconcile removes a vanished user from every ongoing call. Ringing calls
// are deliberately left alone; the ring timer is their only cleanup path.
func (m *callManager) reconcile(userID uuid.UUID) {
	for callID, entry := range m.ongoing {
		if !entry.contains(userID) {
			continue
		}

		remaining := entry.participants[:0:0]
		for _, peer := range entry.participants {
			if peer.ID != userID {
				remaining = append(remaining, peer)
			}
		}

		for _, peer := range remaining {
			m.notify(peer.ID, EventUserLeftCall, models.UserLeftCallEvent{
				UserID: userID,
				CallID: callID,
			})
		}

		if len(remaining) == 0 {
			delete(m.ongoing, callID)
		} else {
			m.ongoing[callID] = callEntry{participants: remaining}
		}
	}
}
