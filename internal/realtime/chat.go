package realtime

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/models"
)

// ChatStore is the durable message log the delivery tracker coordinates with.
type ChatStore interface {
	Insert(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*models.ChatMessage, error)
	FindByReceiverAndStatus(ctx context.Context, receiverID uuid.UUID, status models.MessageStatus) ([]*models.ChatMessage, error)
	FindByPairAndStatus(ctx context.Context, senderID, receiverID uuid.UUID, status models.MessageStatus) ([]*models.ChatMessage, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) error
	AdvanceByReceiver(ctx context.Context, receiverID uuid.UUID, from, to models.MessageStatus) error
	AdvanceByPair(ctx context.Context, senderID, receiverID uuid.UUID, from, to models.MessageStatus) error
}

// deliveryTracker owns the sent -> delivered -> read lifecycle, reconciling
// the persisted log with live presence. Persistence failures are logged and
// the live-notification path for that call is abandoned; nothing is retried.
type deliveryTracker struct {
	store    ChatStore
	presence *presenceRegistry
	notify   notifyFunc
}

// send persists the message as sent and acks the sender, then attempts
// immediate delivery if the receiver is online. The ack always carries the
// persisted message in status sent; the delivered transition is reported
// separately via messageStatusUpdate.
func (t *deliveryTracker) send(ctx context.Context, p SendMessagePayload, ack func(*models.ChatMessage)) {
	msg, err := t.store.Insert(ctx, p.SenderID, p.ReceiverID, p.Body)
	if err != nil {
		log.Printf("[chat] failed to persist message from %s: %v", p.SenderID, err)
		return
	}
	if ack != nil {
		ack(msg)
	}

	if !t.presence.online(msg.ReceiverID) {
		return
	}
	t.notify(msg.ReceiverID, EventMessageReceived, msg)

	if err := t.store.UpdateStatus(ctx, msg.ID, models.MessageDelivered); err != nil {
		log.Printf("[chat] failed to mark message %s delivered: %v", msg.ID, err)
		return
	}
	t.notify(msg.SenderID, EventMessageStatusUpdate, models.MessageStatusUpdateEvent{
		MessageID: msg.ID,
		Status:    models.MessageDelivered,
	})
}

// catchUp delivers everything still in status sent to a user who just joined,
// as one batch, and bulk-advances the batch to delivered. Senders are told
// best-effort; an offline sender simply misses the update.
func (t *deliveryTracker) catchUp(ctx context.Context, userID uuid.UUID) {
	pending, err := t.store.FindByReceiverAndStatus(ctx, userID, models.MessageSent)
	if err != nil {
		log.Printf("[chat] catch-up query failed for %s: %v", userID, err)
		return
	}
	if len(pending) == 0 {
		return
	}

	t.notify(userID, EventMessageReceived, pending)

	for _, msg := range pending {
		t.notify(msg.SenderID, EventMessageStatusUpdate, models.MessageStatusUpdateEvent{
			MessageID: msg.ID,
			Status:    models.MessageDelivered,
		})
	}

	if err := t.store.AdvanceByReceiver(ctx, userID, models.MessageSent, models.MessageDelivered); err != nil {
		log.Printf("[chat] catch-up bulk update failed for %s: %v", userID, err)
	}
}

// markRead advances every delivered message from sender to receiver to read
// and tells the sender once per affected message.
func (t *deliveryTracker) markRead(ctx context.Context, p MarkAsReadPayload) {
	unread, err := t.store.FindByPairAndStatus(ctx, p.SenderID, p.ReceiverID, models.MessageDelivered)
	if err != nil {
		log.Printf("[chat] mark-read query failed for %s->%s: %v", p.SenderID, p.ReceiverID, err)
		return
	}
	if len(unread) == 0 {
		return
	}

	if err := t.store.AdvanceByPair(ctx, p.SenderID, p.ReceiverID, models.MessageDelivered, models.MessageRead); err != nil {
		log.Printf("[chat] mark-read bulk update failed for %s->%s: %v", p.SenderID, p.ReceiverID, err)
		return
	}

	for _, msg := range unread {
		t.notify(msg.SenderID, EventMessageStatusUpdate, models.MessageStatusUpdateEvent{
			MessageID: msg.ID,
			Status:    models.MessageRead,
		})
	}
}
