package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"nisser/internal/model"
)

type progressRepository struct {
	db *sqlx.DB
}

func NewProgressRepository(db *sqlx.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// ActivityCounts gathers the user's contribution totals in one round trip.
func (r *progressRepository) ActivityCounts(ctx context.Context, userID int64) (*model.ActivityCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM reviews WHERE user_id = $1)             AS reviews,
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)         AS following,
			(SELECT COUNT(*) FROM review_useful_marks WHERE user_id = $1) AS useful,
			(SELECT COUNT(*) FROM review_comments WHERE user_id = $1)     AS comments
	`
	var counts model.ActivityCounts
	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("get activity counts: %w", err)
	}
	return &counts, nil
}

// Leaderboard ranks the users userID follows by how many reviews they wrote.
func (r *progressRepository) Leaderboard(ctx context.Context, userID int64) ([]model.LeaderboardEntry, error) {
	query := `
		SELECT u.id, u.name, u.image, COUNT(rv.id) AS review_count
		FROM follows f
		JOIN users u ON u.id = f.following_id
		LEFT JOIN reviews rv ON rv.user_id = u.id
		WHERE f.follower_id = $1
		GROUP BY u.id, u.name, u.image
		ORDER BY review_count DESC, u.id
	`
	entries := []model.LeaderboardEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	return entries, nil
}
