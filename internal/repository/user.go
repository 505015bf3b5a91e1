package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"nisser/internal/model"
)

const userColumns = `id, email, password_hashed, name, image, bio, interests, notifications_enabled,
	has_completed_onboarding, has_access, available_for_recommendation, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and fills in the generated columns
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.Interests == nil {
		u.Interests = pq.StringArray{}
	}

	query := `
		INSERT INTO users (email, password_hashed, name, image, interests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, notifications_enabled, has_completed_onboarding, has_access,
		          available_for_recommendation, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query, u.Email, u.PasswordHashed, u.Name, u.Image, u.Interests)
	err := row.Scan(
		&u.ID,
		&u.NotificationsEnabled,
		&u.HasCompletedOnboarding,
		&u.HasAccess,
		&u.AvailableForRecommendation,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a user by their (case-insensitive) email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

func (r *userRepository) GetSummary(ctx context.Context, id int64) (*model.UserSummary, error) {
	var s model.UserSummary
	err := r.db.GetContext(ctx, &s, `SELECT id, name, image FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user summary: %w", err)
	}
	return &s, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Search matches users whose name contains query, case-insensitively.
func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	searchQuery := `
		SELECT id, name, image
		FROM users
		WHERE name ILIKE $1
		ORDER BY name, id
		LIMIT $2
	`

	users := []model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, searchQuery, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}

// UpdateProfile sets the name and, when image is non-nil, the image.
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, name string, image *string) (*model.User, error) {
	query := `
		UPDATE users
		SET name = $2, image = COALESCE($3, image), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, id, name, image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &u, nil
}

func (r *userRepository) CompleteOnboarding(ctx context.Context, id int64, interests []string, bio string, notifications bool) error {
	if interests == nil {
		interests = []string{}
	}

	query := `
		UPDATE users
		SET interests = $2, bio = $3, notifications_enabled = $4,
		    has_completed_onboarding = true, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, pq.Array(interests), bio, notifications)
	if err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
