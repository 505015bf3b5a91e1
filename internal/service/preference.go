package service

import (
	"context"

	"nisser/internal/model"
	"nisser/internal/repository"
)

type PreferenceService struct {
	repo repository.PreferenceRepository
}

func NewPreferenceService(repo repository.PreferenceRepository) *PreferenceService {
	return &PreferenceService{repo: repo}
}

// List returns the preference catalogue ordered by name.
func (s *PreferenceService) List(ctx context.Context) ([]model.Preference, error) {
	return s.repo.List(ctx)
}
