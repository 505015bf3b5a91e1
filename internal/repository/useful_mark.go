package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type usefulMarkRepository struct {
	db *sqlx.DB
}

func NewUsefulMarkRepository(db *sqlx.DB) UsefulMarkRepository {
	return &usefulMarkRepository{db: db}
}

// Insert adds the mark and reports whether it was new.
func (r *usefulMarkRepository) Insert(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64) (bool, error) {
	query := `
		INSERT INTO review_useful_marks (review_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (review_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, reviewID, userID)
	if err != nil {
		return false, fmt.Errorf("insert useful mark: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *usefulMarkRepository) Delete(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64) error {
	query := `DELETE FROM review_useful_marks WHERE review_id = $1 AND user_id = $2`
	if _, err := tx.ExecContext(ctx, query, reviewID, userID); err != nil {
		return fmt.Errorf("delete useful mark: %w", err)
	}
	return nil
}

func (r *usefulMarkRepository) Exists(ctx context.Context, reviewID, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM review_useful_marks WHERE review_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, reviewID, userID); err != nil {
		return false, fmt.Errorf("check useful mark: %w", err)
	}
	return exists, nil
}
