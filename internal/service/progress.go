package service

import (
	"context"

	"nisser/internal/model"
	"nisser/internal/repository"
)

// ProgressService computes onboarding goals and the community power ladder.
type ProgressService struct {
	repo repository.ProgressRepository
}

func NewProgressService(repo repository.ProgressRepository) *ProgressService {
	return &ProgressService{repo: repo}
}

// Get builds the progress page for userID. Resistance power is the caller's
// own review count plus the review counts of everyone they follow.
func (s *ProgressService) Get(ctx context.Context, userID int64) (*model.ProgressResponse, error) {
	counts, err := s.repo.ActivityCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	leaderboard, err := s.repo.Leaderboard(ctx, userID)
	if err != nil {
		return nil, err
	}

	power := counts.Reviews
	for _, entry := range leaderboard {
		power += entry.ReviewCount
	}

	return &model.ProgressResponse{
		Success: true,
		Progress: model.ProgressGoals{
			Reviews:   model.NewGoalProgress(counts.Reviews, model.ReviewGoal),
			Following: model.NewGoalProgress(counts.Following, model.FollowingGoal),
			Useful:    model.NewGoalProgress(counts.Useful, model.UsefulGoal),
			Comments:  model.NewGoalProgress(counts.Comments, model.CommentGoal),
			HasFirst:  counts.Reviews > 0,
		},
		Resistance:  model.ResistanceFor(power),
		Leaderboard: leaderboard,
	}, nil
}
