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

type feedPostRepository struct {
	db *sqlx.DB
}

func NewFeedPostRepository(db *sqlx.DB) FeedPostRepository {
	return &feedPostRepository{db: db}
}

func (r *feedPostRepository) Create(ctx context.Context, tx *sqlx.Tx, post *model.FeedPost) error {
	query := `
		INSERT INTO feed_posts (user_id, content, type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := tx.QueryRowxContext(ctx, query, post.UserID, post.Content, post.Type).Scan(&post.ID, &post.CreatedAt); err != nil {
		return fmt.Errorf("insert feed post: %w", err)
	}
	return nil
}

func (r *feedPostRepository) GetByID(ctx context.Context, id int64) (*model.FeedPost, error) {
	var post model.FeedPost
	err := r.db.GetContext(ctx, &post, `SELECT id, user_id, content, type, created_at FROM feed_posts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrFeedPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feed post: %w", err)
	}
	return &post, nil
}

func (r *feedPostRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feed_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feed post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrFeedPostNotFound
	}
	return nil
}

// ListForUser returns posts by userID and the users they follow, newest first.
func (r *feedPostRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]model.FeedPost, error) {
	query := `
		SELECT p.id, p.user_id, p.content, p.type, p.created_at,
		       u.name AS author_name, u.image AS author_image
		FROM feed_posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		   OR p.user_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2
	`

	type postRow struct {
		ID          int64     `db:"id"`
		UserID      int64     `db:"user_id"`
		Content     string    `db:"content"`
		Type        string    `db:"type"`
		CreatedAt   time.Time `db:"created_at"`
		AuthorName  *string   `db:"author_name"`
		AuthorImage *string   `db:"author_image"`
	}

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list feed posts: %w", err)
	}

	posts := make([]model.FeedPost, len(rows))
	for i, row := range rows {
		posts[i] = model.FeedPost{
			ID:        row.ID,
			UserID:    row.UserID,
			Content:   row.Content,
			Type:      row.Type,
			CreatedAt: row.CreatedAt,
			User: &model.UserSummary{
				ID:    row.UserID,
				Name:  row.AuthorName,
				Image: row.AuthorImage,
			},
		}
	}
	return posts, nil
}
