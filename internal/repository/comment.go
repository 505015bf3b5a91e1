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

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment inside tx so its outbox event commits with it.
func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64, content string) (*model.Comment, error) {
	query := `
		INSERT INTO review_comments (review_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, review_id, user_id, content, created_at, updated_at
	`
	var comment model.Comment
	if err := tx.GetContext(ctx, &comment, query, reviewID, userID, content); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `
		SELECT id, review_id, user_id, content, created_at, updated_at
		FROM review_comments
		WHERE id = $1
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// Update changes a comment's content. Only the author can update.
func (r *commentRepository) Update(ctx context.Context, commentID, userID int64, content string) (*model.Comment, error) {
	query := `
		UPDATE review_comments
		SET content = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING id, review_id, user_id, content, created_at, updated_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, content, commentID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// tell a missing comment apart from someone else's
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM review_comments WHERE id = $1)`, commentID); err != nil {
			return nil, fmt.Errorf("check comment existence: %w", err)
		}
		if exists {
			return nil, model.ErrForbidden
		}
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, commentID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM review_comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}

// ListByReview returns the comments of a review oldest first, with their authors.
func (r *commentRepository) ListByReview(ctx context.Context, reviewID int64) ([]model.Comment, error) {
	query := `
		SELECT c.id, c.review_id, c.user_id, c.content, c.created_at, c.updated_at,
		       u.name AS author_name, u.image AS author_image
		FROM review_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.review_id = $1
		ORDER BY c.created_at, c.id
	`

	type commentRow struct {
		ID          int64     `db:"id"`
		ReviewID    int64     `db:"review_id"`
		UserID      int64     `db:"user_id"`
		Content     string    `db:"content"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
		AuthorName  *string   `db:"author_name"`
		AuthorImage *string   `db:"author_image"`
	}

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, reviewID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = model.Comment{
			ID:        row.ID,
			ReviewID:  row.ReviewID,
			UserID:    row.UserID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			User: &model.UserSummary{
				ID:    row.UserID,
				Name:  row.AuthorName,
				Image: row.AuthorImage,
			},
		}
	}
	return comments, nil
}
