package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"nisser/internal/model"
)

type followRequestRepository struct {
	db *sqlx.DB
}

func NewFollowRequestRepository(db *sqlx.DB) FollowRequestRepository {
	return &followRequestRepository{db: db}
}

// Upsert creates the pair's request or recycles an answered one back to pending
// in one statement. No row comes back when the request is already pending.
func (r *followRequestRepository) Upsert(ctx context.Context, tx *sqlx.Tx, requesterID, recipientID int64) (int64, bool, error) {
	query := `
		INSERT INTO follow_requests (requester_id, recipient_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (requester_id, recipient_id) DO UPDATE
		SET status = 'pending', updated_at = NOW()
		WHERE follow_requests.status <> 'pending'
		RETURNING id
	`
	var id int64
	err := tx.GetContext(ctx, &id, query, requesterID, recipientID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert follow request: %w", err)
	}
	return id, true, nil
}

// GetForRecipient locks the request row addressed to recipientID.
func (r *followRequestRepository) GetForRecipient(ctx context.Context, tx *sqlx.Tx, requestID, recipientID int64) (*model.FollowRequest, error) {
	query := `
		SELECT id, requester_id, recipient_id, status, created_at, updated_at
		FROM follow_requests
		WHERE id = $1 AND recipient_id = $2
		FOR UPDATE
	`
	var fr model.FollowRequest
	if err := tx.GetContext(ctx, &fr, query, requestID, recipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get follow request: %w", err)
	}
	return &fr, nil
}

// Resolve moves a pending request to status. It reports false if the request
// was no longer pending.
func (r *followRequestRepository) Resolve(ctx context.Context, tx *sqlx.Tx, requestID int64, status string) (bool, error) {
	query := `
		UPDATE follow_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	result, err := tx.ExecContext(ctx, query, requestID, status)
	if err != nil {
		return false, fmt.Errorf("failed to resolve follow request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *followRequestRepository) HasPending(ctx context.Context, requesterID, recipientID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM follow_requests
			WHERE requester_id = $1 AND recipient_id = $2 AND status = 'pending'
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, requesterID, recipientID); err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return exists, nil
}

// ListPending returns incoming pending requests with the requester's identity, newest first.
func (r *followRequestRepository) ListPending(ctx context.Context, recipientID int64) ([]model.FollowRequest, error) {
	query := `
		SELECT fr.id, fr.requester_id, fr.recipient_id, fr.status, fr.created_at, fr.updated_at,
		       u.name AS requester_name, u.image AS requester_image
		FROM follow_requests fr
		JOIN users u ON u.id = fr.requester_id
		WHERE fr.recipient_id = $1 AND fr.status = 'pending'
		ORDER BY fr.updated_at DESC, fr.id DESC
	`

	type requestRow struct {
		ID             int64     `db:"id"`
		RequesterID    int64     `db:"requester_id"`
		RecipientID    int64     `db:"recipient_id"`
		Status         string    `db:"status"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
		RequesterName  *string   `db:"requester_name"`
		RequesterImage *string   `db:"requester_image"`
	}

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, recipientID); err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	requests := make([]model.FollowRequest, len(rows))
	for i, row := range rows {
		requests[i] = model.FollowRequest{
			ID:          row.ID,
			RequesterID: row.RequesterID,
			RecipientID: row.RecipientID,
			Status:      row.Status,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
			Requester: &model.UserSummary{
				ID:    row.RequesterID,
				Name:  row.RequesterName,
				Image: row.RequesterImage,
			},
		}
	}
	return requests, nil
}
