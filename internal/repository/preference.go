package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"nisser/internal/model"
)

type preferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) List(ctx context.Context) ([]model.Preference, error) {
	prefs := []model.Preference{}
	if err := r.db.SelectContext(ctx, &prefs, `SELECT id, name FROM preferences ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}
