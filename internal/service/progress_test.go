package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nisser/internal/model"
)

func TestProgressService_Get(t *testing.T) {
	repo := &mockProgressRepository{
		counts: &model.ActivityCounts{Reviews: 4, Following: 2, Useful: 1, Comments: 3},
		leaderboard: []model.LeaderboardEntry{
			{ID: 2, ReviewCount: 15},
			{ID: 3, ReviewCount: 8},
		},
	}
	svc := NewProgressService(repo)

	progress, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, progress.Success)
	assert.True(t, progress.Progress.Reviews.Reached)
	assert.False(t, progress.Progress.Following.Reached)
	assert.Equal(t, model.FollowingGoal, progress.Progress.Following.Target)
	assert.True(t, progress.Progress.Comments.Reached)
	assert.True(t, progress.Progress.HasFirst)

	// 4 own + 15 + 8
	assert.Equal(t, 27, progress.Resistance.TotalPower)
	assert.Equal(t, "Growing Resistance", progress.Resistance.CurrentLevel.Name)
	require.NotNil(t, progress.Resistance.NextLevel)
	assert.Equal(t, "United Front", progress.Resistance.NextLevel.Name)
	assert.Equal(t, 23, progress.Resistance.PowerNeededForNext)
	assert.Len(t, progress.Leaderboard, 2)
}

func TestProgressService_NewUser(t *testing.T) {
	svc := NewProgressService(&mockProgressRepository{counts: &model.ActivityCounts{}})

	progress, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, progress.Progress.HasFirst)
	assert.Zero(t, progress.Resistance.TotalPower)
	assert.Equal(t, 10, progress.Resistance.PowerNeededForNext)
}

func TestProgressService_Error(t *testing.T) {
	svc := NewProgressService(&mockProgressRepository{err: errors.New("db down")})

	_, err := svc.Get(context.Background(), 1)
	assert.Error(t, err)
}
