package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/cineparty-back/internal/models"
)

// Repository is the durable chat message log. The realtime delivery tracker
// drives all status transitions; the REST layer only reads history.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{}
	err := r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (sender_id, receiver_id, body, status)
		VALUES ($1, $2, $3, 'sent')
		RETURNING id, sender_id, receiver_id, body, status, created_at
	`, senderID, receiverID, body).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &msg.Status, &msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *Repository) FindByReceiverAndStatus(ctx context.Context, receiverID uuid.UUID, status models.MessageStatus) ([]*models.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sender_id, receiver_id, body, status, created_at
		FROM chat_messages
		WHERE receiver_id = $1 AND status = $2
		ORDER BY created_at
	`, receiverID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *Repository) FindByPairAndStatus(ctx context.Context, senderID, receiverID uuid.UUID, status models.MessageStatus) ([]*models.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sender_id, receiver_id, body, status, created_at
		FROM chat_messages
		WHERE sender_id = $1 AND receiver_id = $2 AND status = $3
		ORDER BY created_at
	`, senderID, receiverID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE chat_messages SET status = $1 WHERE id = $2
	`, status, id)
	return err
}

// AdvanceByReceiver bulk-moves every message to a receiver from one status to
// the next. The from-status guard keeps the transition monotonic under
// concurrent updates.
func (r *Repository) AdvanceByReceiver(ctx context.Context, receiverID uuid.UUID, from, to models.MessageStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE chat_messages SET status = $1
		WHERE receiver_id = $2 AND status = $3
	`, to, receiverID, from)
	return err
}

func (r *Repository) AdvanceByPair(ctx context.Context, senderID, receiverID uuid.UUID, from, to models.MessageStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE chat_messages SET status = $1
		WHERE sender_id = $2 AND receiver_id = $3 AND status = $4
	`, to, senderID, receiverID, from)
	return err
}

// History returns a page of the two-way conversation between two users in
// chronological order.
func (r *Repository) History(ctx context.Context, userID, friendID uuid.UUID, page, limit int) ([]*models.ChatMessage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, sender_id, receiver_id, body, status, created_at
		FROM chat_messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, friendID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Newest page first from the query; flip to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func scanMessages(rows pgx.Rows) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	for rows.Next() {
		msg := &models.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &msg.Status, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
