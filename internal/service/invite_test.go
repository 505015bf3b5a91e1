package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nisser/internal/model"
)

var inviteNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newInviteFixture(t *testing.T) (*InviteService, *mockInviteRepository, *mockFollowRepository, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	now := func() time.Time { return inviteNow }
	invites := newMockInviteRepository(now)
	follows := newMockFollowRepository()
	name := "Ana"
	users := &mockUserRepository{
		getSummaryFn: func(ctx context.Context, id int64) (*model.UserSummary, error) {
			if id != 1 {
				return nil, model.ErrUserNotFound
			}
			return &model.UserSummary{ID: 1, Name: &name}, nil
		},
	}
	svc := NewInviteService(db, invites, follows, users, "https://nisser.test/", zap.NewNop())
	svc.now = now
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return svc, invites, follows, mock
}

func codeFromURL(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("code")
}

func TestInviteService_Generate(t *testing.T) {
	svc, invites, _, _ := newInviteFixture(t)

	generated, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(generated.InviteURL, "https://nisser.test/invite?code="))

	code := codeFromURL(t, generated.InviteURL)
	assert.Len(t, code, model.InviteCodeLength)

	invite := invites.invites[code]
	require.NotNil(t, invite)
	assert.Equal(t, int64(1), invite.InviterID)
	assert.Equal(t, inviteNow.Add(7*24*time.Hour), invite.ExpiresAt)
	assert.False(t, invite.Used)
}

func TestInviteService_GenerateRetriesOnCollision(t *testing.T) {
	svc, invites, _, _ := newInviteFixture(t)
	invites.createErr = []error{model.ErrInviteCodeTaken, model.ErrInviteCodeTaken}

	_, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, invites.invites, 1)
}

func TestInviteService_GenerateGivesUp(t *testing.T) {
	svc, invites, _, _ := newInviteFixture(t)
	for i := 0; i < maxInviteCodeAttempts; i++ {
		invites.createErr = append(invites.createErr, model.ErrInviteCodeTaken)
	}

	_, err := svc.Generate(context.Background(), 1)
	assert.ErrorIs(t, err, model.ErrInviteCodeTaken)
}

func TestInviteService_Validate(t *testing.T) {
	svc, invites, _, _ := newInviteFixture(t)
	ctx := context.Background()

	invites.invites["good"] = &model.Invite{Code: "good", InviterID: 1, ExpiresAt: inviteNow.Add(time.Hour)}
	invites.invites["used"] = &model.Invite{Code: "used", InviterID: 1, ExpiresAt: inviteNow.Add(time.Hour), Used: true}
	invites.invites["expired"] = &model.Invite{Code: "expired", InviterID: 1, ExpiresAt: inviteNow.Add(-time.Second)}
	invites.invites["orphan"] = &model.Invite{Code: "orphan", InviterID: 42, ExpiresAt: inviteNow.Add(time.Hour)}

	result, err := svc.Validate(ctx, "good")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, int64(1), result.Inviter.ID)
	assert.Equal(t, "Ana", *result.Inviter.Name)

	// validation never consumes
	assert.False(t, invites.invites["good"].Used)

	for _, code := range []string{"used", "expired", "orphan", "missing"} {
		_, err := svc.Validate(ctx, code)
		assert.ErrorIs(t, err, model.ErrInviteInvalid, code)
	}
}

func TestInviteService_RedeemCreatesMutualFollow(t *testing.T) {
	svc, invites, follows, mock := newInviteFixture(t)
	ctx := context.Background()

	invites.invites["abc"] = &model.Invite{Code: "abc", InviterID: 1, ExpiresAt: inviteNow.Add(time.Hour)}

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.RedeemOnRegister(ctx, "abc", 7))

	assert.True(t, follows.edges[[2]int64{1, 7}])
	assert.True(t, follows.edges[[2]int64{7, 1}])
	assert.True(t, invites.invites["abc"].Used)
	assert.Equal(t, int64(7), *invites.invites["abc"].UsedBy)

	mock.ExpectBegin()
	mock.ExpectRollback()
	err := svc.RedeemOnRegister(ctx, "abc", 8)
	assert.ErrorIs(t, err, model.ErrInviteInvalid)
	assert.False(t, follows.edges[[2]int64{1, 8}])
}

func TestGenerateInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateInviteCode(10)
		require.NoError(t, err)
		require.Len(t, code, 10)
		for _, r := range code {
			assert.Contains(t, inviteAlphabet, string(r))
		}
		seen[code] = true
	}
	assert.Len(t, seen, 100)
}
