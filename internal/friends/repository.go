package friends

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/cineparty-back/internal/models"
)

var (
	ErrCannotAddSelf   = errors.New("cannot send friend request to yourself")
	ErrRequestExists   = errors.New("friend request already exists")
	ErrRequestNotFound = errors.New("friend request not found")
	ErrNotRecipient    = errors.New("not the recipient of this request")
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SendRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, ErrCannotAddSelf
	}

	req := &models.FriendRequest{}
	err := r.db.QueryRow(ctx, `
		INSERT INTO friend_requests (from_user_id, to_user_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, from_user_id, to_user_id, status, created_at, updated_at
	`, fromUserID, toUserID).Scan(
		&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if err.Error() == `ERROR: duplicate key value violates unique constraint "friend_requests_from_user_id_to_user_id_key" (SQLSTATE 23505)` {
			return nil, ErrRequestExists
		}
		return nil, err
	}
	return req, nil
}

// AcceptRequest marks a pending request accepted; only the recipient may.
func (r *Repository) AcceptRequest(ctx context.Context, requestID, userID uuid.UUID) (*models.FriendRequest, error) {
	return r.resolveRequest(ctx, requestID, userID, models.FriendRequestAccepted)
}

func (r *Repository) DeclineRequest(ctx context.Context, requestID, userID uuid.UUID) (*models.FriendRequest, error) {
	return r.resolveRequest(ctx, requestID, userID, models.FriendRequestDeclined)
}

func (r *Repository) resolveRequest(ctx context.Context, requestID, userID uuid.UUID, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	req := &models.FriendRequest{}
	err := r.db.QueryRow(ctx, `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM friend_requests
		WHERE id = $1 AND status = 'pending'
	`, requestID).Scan(
		&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.ToUserID != userID {
		return nil, ErrNotRecipient
	}

	err = r.db.QueryRow(ctx, `
		UPDATE friend_requests SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, from_user_id, to_user_id, status, created_at, updated_at
	`, status, requestID).Scan(
		&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// GetFriends returns users with an accepted request in either direction.
func (r *Repository) GetFriends(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.email, u.username, u.avatar_url, u.created_at, u.updated_at
		FROM users u
		JOIN friend_requests fr
		  ON (fr.from_user_id = u.id AND fr.to_user_id = $1)
		  OR (fr.to_user_id = u.id AND fr.from_user_id = $1)
		WHERE fr.status = 'accepted'
		ORDER BY u.username
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Username, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// GetIncomingRequests returns pending requests addressed to the user.
func (r *Repository) GetIncomingRequests(ctx context.Context, userID uuid.UUID) ([]*models.FriendRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		FROM friend_requests
		WHERE to_user_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.FriendRequest
	for rows.Next() {
		req := &models.FriendRequest{}
		if err := rows.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}
