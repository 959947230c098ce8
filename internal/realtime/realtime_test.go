package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
)

// recordedEvent is one notify/publish call captured by the test doubles.
type recordedEvent struct {
	userID  uuid.UUID
	event   string
	payload any
}

// recorder collects events and doubles as both a notifyFunc and an EventSink.
type recorder struct {
	events []recordedEvent
}

func (r *recorder) notify(userID uuid.UUID, event string, payload any) {
	r.events = append(r.events, recordedEvent{userID: userID, event: event, payload: payload})
}

func (r *recorder) Publish(userID uuid.UUID, event string, data any) error {
	r.notify(userID, event, data)
	return nil
}

func (r *recorder) forUser(userID uuid.UUID) []recordedEvent {
	var out []recordedEvent
	for _, e := range r.events {
		if e.userID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e.event == event {
			n++
		}
	}
	return n
}

// fakeChatStore is an in-memory ChatStore with injectable failures.
type fakeChatStore struct {
	messages []*models.ChatMessage

	insertErr  error
	findErr    error
	updateErr  error
	advanceErr error
}

func (s *fakeChatStore) Insert(_ context.Context, senderID, receiverID uuid.UUID, body string) (*models.ChatMessage, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	msg := &models.ChatMessage{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Status:     models.MessageSent,
		CreatedAt:  time.Now(),
	}
	s.messages = append(s.messages, msg)
	// Return a copy so callers don't alias the stored row; a real store
	// returns a snapshot that later status updates don't mutate.
	returned := *msg
	return &returned, nil
}

func (s *fakeChatStore) FindByReceiverAndStatus(_ context.Context, receiverID uuid.UUID, status models.MessageStatus) ([]*models.ChatMessage, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []*models.ChatMessage
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeChatStore) FindByPairAndStatus(_ context.Context, senderID, receiverID uuid.UUID, status models.MessageStatus) ([]*models.ChatMessage, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []*models.ChatMessage
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeChatStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.MessageStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	for _, m := range s.messages {
		if m.ID == id {
			m.Status = status
			return nil
		}
	}
	return errors.New("message not found")
}

func (s *fakeChatStore) AdvanceByReceiver(_ context.Context, receiverID uuid.UUID, from, to models.MessageStatus) error {
	if s.advanceErr != nil {
		return s.advanceErr
	}
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && m.Status == from {
			m.Status = to
		}
	}
	return nil
}

func (s *fakeChatStore) AdvanceByPair(_ context.Context, senderID, receiverID uuid.UUID, from, to models.MessageStatus) error {
	if s.advanceErr != nil {
		return s.advanceErr
	}
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && m.Status == from {
			m.Status = to
		}
	}
	return nil
}

func (s *fakeChatStore) byID(id uuid.UUID) *models.ChatMessage {
	for _, m := range s.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func peer(id uuid.UUID) models.CallPeer {
	return models.CallPeer{ID: id}
}
