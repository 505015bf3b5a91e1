package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"nisser/internal/model"
)

type inviteRepository struct {
	db *sqlx.DB
}

func NewInviteRepository(db *sqlx.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	query := `
		INSERT INTO invites (code, inviter_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, used, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, invite.Code, invite.InviterID, invite.ExpiresAt).
		Scan(&invite.ID, &invite.Used, &invite.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrInviteCodeTaken
		}
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*model.Invite, error) {
	query := `
		SELECT id, code, inviter_id, expires_at, used, used_by, created_at
		FROM invites
		WHERE code = $1
	`
	var invite model.Invite
	err := r.db.GetContext(ctx, &invite, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrInviteInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return &invite, nil
}

// Consume flips used in the same statement that checks redeemability, so two
// concurrent redemptions cannot both succeed.
func (r *inviteRepository) Consume(ctx context.Context, tx *sqlx.Tx, code string, usedBy int64) (int64, error) {
	query := `
		UPDATE invites
		SET used = true, used_by = $2
		WHERE code = $1 AND used = false AND expires_at > NOW()
		RETURNING inviter_id
	`
	var inviterID int64
	err := tx.GetContext(ctx, &inviterID, query, code, usedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrInviteInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("consume invite: %w", err)
	}
	return inviterID, nil
}
