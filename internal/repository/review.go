package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"nisser/internal/model"
)

type reviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewSelect = `
	SELECT r.id, r.user_id, r.location_name, r.location_type, r.coordinates, r.primary_emoji,
	       r.review_text, r.images, r.created_at, r.updated_at,
	       u.name AS user_name, u.image AS user_image
	FROM reviews r
	JOIN users u ON u.id = r.user_id
`

// reviewRow scans a review joined with its author.
type reviewRow struct {
	ID           int64          `db:"id"`
	UserID       int64          `db:"user_id"`
	LocationName string         `db:"location_name"`
	LocationType string         `db:"location_type"`
	Coordinates  model.Point    `db:"coordinates"`
	PrimaryEmoji string         `db:"primary_emoji"`
	ReviewText   string         `db:"review_text"`
	Images       pq.StringArray `db:"images"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	UserName     *string        `db:"user_name"`
	UserImage    *string        `db:"user_image"`
}

func (row reviewRow) toModel() model.Review {
	images := row.Images
	if images == nil {
		images = pq.StringArray{}
	}
	return model.Review{
		ID:           row.ID,
		UserID:       row.UserID,
		LocationName: row.LocationName,
		LocationType: row.LocationType,
		Coordinates:  row.Coordinates,
		PrimaryEmoji: row.PrimaryEmoji,
		ReviewText:   row.ReviewText,
		Images:       images,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		Preferences:  []model.ReviewPreference{},
		User: &model.UserSummary{
			ID:    row.UserID,
			Name:  row.UserName,
			Image: row.UserImage,
		},
	}
}

func (r *reviewRepository) selectReviews(ctx context.Context, query string, args ...interface{}) ([]model.Review, error) {
	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	reviews := make([]model.Review, len(rows))
	for i, row := range rows {
		reviews[i] = row.toModel()
	}
	return reviews, nil
}

// Create inserts the review inside tx and fills in the generated columns.
func (r *reviewRepository) Create(ctx context.Context, tx *sqlx.Tx, review *model.Review) error {
	query := `
		INSERT INTO reviews (user_id, location_name, location_type, coordinates, primary_emoji, review_text, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := tx.QueryRowxContext(ctx, query,
		review.UserID,
		review.LocationName,
		review.LocationType,
		review.Coordinates,
		review.PrimaryEmoji,
		review.ReviewText,
		review.Images,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	reviews, err := r.selectReviews(ctx, reviewSelect+` WHERE r.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if len(reviews) == 0 {
		return nil, model.ErrReviewNotFound
	}
	return &reviews[0], nil
}

func (r *reviewRepository) GetOwnerID(ctx context.Context, id int64) (int64, error) {
	var ownerID int64
	err := r.db.GetContext(ctx, &ownerID, `SELECT user_id FROM reviews WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrReviewNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get review owner: %w", err)
	}
	return ownerID, nil
}

// LockOwnerID returns the review owner and holds the row lock until tx ends.
func (r *reviewRepository) LockOwnerID(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
	var ownerID int64
	err := tx.GetContext(ctx, &ownerID, `SELECT user_id FROM reviews WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrReviewNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock review owner: %w", err)
	}
	return ownerID, nil
}

// Update rewrites the editable columns of the review inside tx.
func (r *reviewRepository) Update(ctx context.Context, tx *sqlx.Tx, review *model.Review) error {
	query := `
		UPDATE reviews
		SET location_name = $2, location_type = $3, coordinates = $4, primary_emoji = $5,
		    review_text = $6, images = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := tx.QueryRowxContext(ctx, query,
		review.ID,
		review.LocationName,
		review.LocationType,
		review.Coordinates,
		review.PrimaryEmoji,
		review.ReviewText,
		review.Images,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrReviewNotFound
	}
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// Delete removes the review inside tx; comments, marks and preferences cascade.
func (r *reviewRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID int64) ([]model.Review, error) {
	reviews, err := r.selectReviews(ctx, reviewSelect+`
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by user: %w", err)
	}
	return reviews, nil
}

// Feed returns reviews written by userID or by anyone they follow, newest first.
func (r *reviewRepository) Feed(ctx context.Context, userID int64, limit int) ([]model.Review, error) {
	reviews, err := r.selectReviews(ctx, reviewSelect+`
		WHERE r.user_id = $1
		   OR r.user_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("review feed: %w", err)
	}
	return reviews, nil
}

// ReplacePreferences drops every preference row of the review and writes prefs.
func (r *reviewRepository) ReplacePreferences(ctx context.Context, tx *sqlx.Tx, reviewID int64, prefs []model.ReviewPreferenceInput) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM review_preferences WHERE review_id = $1`, reviewID); err != nil {
		return fmt.Errorf("clear review preferences: %w", err)
	}

	query := `
		INSERT INTO review_preferences (review_id, preference_id, is_available, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (review_id, preference_id) DO UPDATE
		SET is_available = EXCLUDED.is_available, note = EXCLUDED.note
	`
	for _, p := range prefs {
		if _, err := tx.ExecContext(ctx, query, reviewID, p.PreferenceID, p.IsAvailable, p.Note); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("insert review preference %d: %w", p.PreferenceID, model.ErrPreferenceNotFound)
			}
			return fmt.Errorf("insert review preference %d: %w", p.PreferenceID, err)
		}
	}
	return nil
}

// GetPreferences loads preference rows for many reviews at once, keyed by review id.
func (r *reviewRepository) GetPreferences(ctx context.Context, reviewIDs []int64) (map[int64][]model.ReviewPreference, error) {
	result := make(map[int64][]model.ReviewPreference, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT rp.review_id, rp.preference_id, p.name, rp.is_available, rp.note
		FROM review_preferences rp
		JOIN preferences p ON p.id = rp.preference_id
		WHERE rp.review_id = ANY($1)
		ORDER BY rp.review_id, p.name
	`
	var rows []model.ReviewPreference
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(reviewIDs)); err != nil {
		return nil, fmt.Errorf("get review preferences: %w", err)
	}

	for _, row := range rows {
		result[row.ReviewID] = append(result[row.ReviewID], row)
	}
	return result, nil
}
