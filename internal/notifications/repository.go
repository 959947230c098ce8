package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/cineparty-back/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, userID uuid.UUID, notifType, message string) (*models.Notification, error) {
	n := &models.Notification{}
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, message)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, type, message, read, created_at
	`, userID, notifType, message).Scan(
		&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MarkRead flags one notification as read, scoped to its owner.
func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error) {
	n := &models.Notification{}
	err := r.db.QueryRow(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, type, message, read, created_at
	`, id, userID).Scan(
		&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}
