package realtime

import "github.com/google/uuid"

// Notifier wraps the hub for easy use in handlers. Delivery is best-effort,
// at-most-once: an offline user simply misses the event.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) NotifyUser(userID uuid.UUID, eventType string, data interface{}) {
	n.hub.NotifyUser(userID, eventType, data)
}

func (n *Notifier) NotifyUsers(userIDs []uuid.UUID, eventType string, data interface{}) {
	for _, userID := range userIDs {
		n.hub.NotifyUser(userID, eventType, data)
	}
}
