package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"nisser/internal/model"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Each mock exposes one func field per method so a test only spells out the
// behaviour it cares about. Transactions come from go-sqlmock.

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type mockUserRepository struct {
	createFn             func(ctx context.Context, user *model.User) error
	getByIDFn            func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn         func(ctx context.Context, email string) (*model.User, error)
	getSummaryFn         func(ctx context.Context, id int64) (*model.UserSummary, error)
	existsFn             func(ctx context.Context, id int64) (bool, error)
	searchFn             func(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	updateProfileFn      func(ctx context.Context, id int64, name string, image *string) (*model.User, error)
	completeOnboardingFn func(ctx context.Context, id int64, interests []string, bio string, notifications bool) error

	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetSummary(ctx context.Context, id int64) (*model.UserSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(ctx, id)
	}
	return &model.UserSummary{ID: id}, nil
}

func (m *mockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return true, nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int64, name string, image *string) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, name, image)
	}
	return &model.User{ID: id, Name: &name, Image: image}, nil
}

func (m *mockUserRepository) CompleteOnboarding(ctx context.Context, id int64, interests []string, bio string, notifications bool) error {
	if m.completeOnboardingFn != nil {
		return m.completeOnboardingFn(ctx, id, interests, bio, notifications)
	}
	return nil
}

// mockFollowRepository keeps an in-memory edge set unless a func overrides it.
type mockFollowRepository struct {
	edges map[[2]int64]bool

	existsErr     error
	suggestionsFn func(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
}

func newMockFollowRepository() *mockFollowRepository {
	return &mockFollowRepository{edges: make(map[[2]int64]bool)}
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error) {
	key := [2]int64{followerID, followingID}
	if m.edges[key] {
		return false, nil
	}
	m.edges[key] = true
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, followerID, followingID int64) error {
	delete(m.edges, [2]int64{followerID, followingID})
	return nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.edges[[2]int64{followerID, followingID}], nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	for edge := range m.edges {
		if edge[1] == userID {
			users = append(users, model.UserSummary{ID: edge[0]})
		}
	}
	return users, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	for edge := range m.edges {
		if edge[0] == userID {
			users = append(users, model.UserSummary{ID: edge[1]})
		}
	}
	return users, nil
}

func (m *mockFollowRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for edge := range m.edges {
		if edge[1] == userID {
			ids = append(ids, edge[0])
		}
	}
	return ids, nil
}

func (m *mockFollowRepository) Suggestions(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	if m.suggestionsFn != nil {
		return m.suggestionsFn(ctx, userID, limit)
	}
	return []model.UserSummary{}, nil
}

// mockFollowRequestRepository mirrors the request table's upsert semantics.
type mockFollowRequestRepository struct {
	nextID   int64
	requests map[int64]*model.FollowRequest
}

func newMockFollowRequestRepository() *mockFollowRequestRepository {
	return &mockFollowRequestRepository{requests: make(map[int64]*model.FollowRequest)}
}

func (m *mockFollowRequestRepository) find(requesterID, recipientID int64) *model.FollowRequest {
	for _, req := range m.requests {
		if req.RequesterID == requesterID && req.RecipientID == recipientID {
			return req
		}
	}
	return nil
}

func (m *mockFollowRequestRepository) Upsert(ctx context.Context, tx *sqlx.Tx, requesterID, recipientID int64) (int64, bool, error) {
	if req := m.find(requesterID, recipientID); req != nil {
		if req.Status == model.FollowRequestPending {
			return 0, false, nil
		}
		req.Status = model.FollowRequestPending
		return req.ID, true, nil
	}
	m.nextID++
	m.requests[m.nextID] = &model.FollowRequest{
		ID:          m.nextID,
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      model.FollowRequestPending,
	}
	return m.nextID, true, nil
}

func (m *mockFollowRequestRepository) GetForRecipient(ctx context.Context, tx *sqlx.Tx, requestID, recipientID int64) (*model.FollowRequest, error) {
	req, ok := m.requests[requestID]
	if !ok || req.RecipientID != recipientID {
		return nil, model.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *mockFollowRequestRepository) Resolve(ctx context.Context, tx *sqlx.Tx, requestID int64, status string) (bool, error) {
	req, ok := m.requests[requestID]
	if !ok || req.Status != model.FollowRequestPending {
		return false, nil
	}
	req.Status = status
	return true, nil
}

func (m *mockFollowRequestRepository) HasPending(ctx context.Context, requesterID, recipientID int64) (bool, error) {
	req := m.find(requesterID, recipientID)
	return req != nil && req.Status == model.FollowRequestPending, nil
}

func (m *mockFollowRequestRepository) ListPending(ctx context.Context, recipientID int64) ([]model.FollowRequest, error) {
	out := []model.FollowRequest{}
	for _, req := range m.requests {
		if req.RecipientID == recipientID && req.Status == model.FollowRequestPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

// mockOutboxRepository records enqueued events.
type mockOutboxRepository struct {
	events     []model.OutboxEvent
	enqueueErr error
}

func (m *mockOutboxRepository) Enqueue(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, *event)
	return nil
}

func (m *mockOutboxRepository) ClaimDue(ctx context.Context, limit int, staleAfter time.Duration) ([]model.OutboxEvent, error) {
	return nil, nil
}

func (m *mockOutboxRepository) MarkPublished(ctx context.Context, id int64) error { return nil }

func (m *mockOutboxRepository) MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, dead bool, lastErr string) error {
	return nil
}

type mockReviewRepository struct {
	createFn             func(ctx context.Context, tx *sqlx.Tx, review *model.Review) error
	getByIDFn            func(ctx context.Context, id int64) (*model.Review, error)
	getOwnerIDFn         func(ctx context.Context, id int64) (int64, error)
	updateFn             func(ctx context.Context, tx *sqlx.Tx, review *model.Review) error
	lockOwnerIDFn        func(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error)
	deleteFn             func(ctx context.Context, tx *sqlx.Tx, id int64) error
	listByUserFn         func(ctx context.Context, userID int64) ([]model.Review, error)
	feedFn               func(ctx context.Context, userID int64, limit int) ([]model.Review, error)
	replacePreferencesFn func(ctx context.Context, tx *sqlx.Tx, reviewID int64, prefs []model.ReviewPreferenceInput) error
	getPreferencesFn     func(ctx context.Context, reviewIDs []int64) (map[int64][]model.ReviewPreference, error)
}

func (m *mockReviewRepository) Create(ctx context.Context, tx *sqlx.Tx, review *model.Review) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, review)
	}
	review.ID = 1
	return nil
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrReviewNotFound
}

func (m *mockReviewRepository) GetOwnerID(ctx context.Context, id int64) (int64, error) {
	if m.getOwnerIDFn != nil {
		return m.getOwnerIDFn(ctx, id)
	}
	return 0, model.ErrReviewNotFound
}

func (m *mockReviewRepository) Update(ctx context.Context, tx *sqlx.Tx, review *model.Review) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, tx, review)
	}
	return nil
}

// LockOwnerID falls back to getOwnerIDFn so fixtures only describe ownership once.
func (m *mockReviewRepository) LockOwnerID(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
	if m.lockOwnerIDFn != nil {
		return m.lockOwnerIDFn(ctx, tx, id)
	}
	return m.GetOwnerID(ctx, id)
}

func (m *mockReviewRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, id)
	}
	return nil
}

func (m *mockReviewRepository) ListByUser(ctx context.Context, userID int64) ([]model.Review, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return []model.Review{}, nil
}

func (m *mockReviewRepository) Feed(ctx context.Context, userID int64, limit int) ([]model.Review, error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, userID, limit)
	}
	return []model.Review{}, nil
}

func (m *mockReviewRepository) ReplacePreferences(ctx context.Context, tx *sqlx.Tx, reviewID int64, prefs []model.ReviewPreferenceInput) error {
	if m.replacePreferencesFn != nil {
		return m.replacePreferencesFn(ctx, tx, reviewID, prefs)
	}
	return nil
}

func (m *mockReviewRepository) GetPreferences(ctx context.Context, reviewIDs []int64) (map[int64][]model.ReviewPreference, error) {
	if m.getPreferencesFn != nil {
		return m.getPreferencesFn(ctx, reviewIDs)
	}
	return map[int64][]model.ReviewPreference{}, nil
}

// mockUsefulMarkRepository keeps marks in memory.
type mockUsefulMarkRepository struct {
	marks map[[2]int64]bool
}

func newMockUsefulMarkRepository() *mockUsefulMarkRepository {
	return &mockUsefulMarkRepository{marks: make(map[[2]int64]bool)}
}

func (m *mockUsefulMarkRepository) Insert(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64) (bool, error) {
	key := [2]int64{reviewID, userID}
	if m.marks[key] {
		return false, nil
	}
	m.marks[key] = true
	return true, nil
}

func (m *mockUsefulMarkRepository) Delete(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64) error {
	delete(m.marks, [2]int64{reviewID, userID})
	return nil
}

func (m *mockUsefulMarkRepository) Exists(ctx context.Context, reviewID, userID int64) (bool, error) {
	return m.marks[[2]int64{reviewID, userID}], nil
}

type mockCommentRepository struct {
	createFn       func(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64, content string) (*model.Comment, error)
	getByIDFn      func(ctx context.Context, commentID int64) (*model.Comment, error)
	updateFn       func(ctx context.Context, commentID, userID int64, content string) (*model.Comment, error)
	deleteFn       func(ctx context.Context, commentID int64) error
	listByReviewFn func(ctx context.Context, reviewID int64) ([]model.Comment, error)

	deleted []int64
}

func (m *mockCommentRepository) Create(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64, content string) (*model.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, tx, reviewID, userID, content)
	}
	return &model.Comment{ID: 1, ReviewID: reviewID, UserID: userID, Content: content}, nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) Update(ctx context.Context, commentID, userID int64, content string) (*model.Comment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, commentID, userID, content)
	}
	return &model.Comment{ID: commentID, UserID: userID, Content: content}, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, commentID int64) error {
	m.deleted = append(m.deleted, commentID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, commentID)
	}
	return nil
}

func (m *mockCommentRepository) ListByReview(ctx context.Context, reviewID int64) ([]model.Comment, error) {
	if m.listByReviewFn != nil {
		return m.listByReviewFn(ctx, reviewID)
	}
	return []model.Comment{}, nil
}

type mockFeedPostRepository struct {
	posts   map[int64]*model.FeedPost
	deleted []int64
}

func newMockFeedPostRepository() *mockFeedPostRepository {
	return &mockFeedPostRepository{posts: make(map[int64]*model.FeedPost)}
}

func (m *mockFeedPostRepository) Create(ctx context.Context, tx *sqlx.Tx, post *model.FeedPost) error {
	post.ID = int64(len(m.posts) + 1)
	post.CreatedAt = time.Now()
	m.posts[post.ID] = post
	return nil
}

func (m *mockFeedPostRepository) GetByID(ctx context.Context, id int64) (*model.FeedPost, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, model.ErrFeedPostNotFound
	}
	return post, nil
}

func (m *mockFeedPostRepository) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	delete(m.posts, id)
	return nil
}

func (m *mockFeedPostRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]model.FeedPost, error) {
	out := []model.FeedPost{}
	for _, post := range m.posts {
		out = append(out, *post)
	}
	return out, nil
}

// mockInviteRepository keeps invites keyed by code and mirrors the atomic consume.
type mockInviteRepository struct {
	invites   map[string]*model.Invite
	createErr []error
	now       func() time.Time
}

func newMockInviteRepository(now func() time.Time) *mockInviteRepository {
	return &mockInviteRepository{invites: make(map[string]*model.Invite), now: now}
}

func (m *mockInviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	if len(m.createErr) > 0 {
		err := m.createErr[0]
		m.createErr = m.createErr[1:]
		if err != nil {
			return err
		}
	}
	invite.ID = int64(len(m.invites) + 1)
	m.invites[invite.Code] = invite
	return nil
}

func (m *mockInviteRepository) GetByCode(ctx context.Context, code string) (*model.Invite, error) {
	invite, ok := m.invites[code]
	if !ok {
		return nil, model.ErrInviteInvalid
	}
	copied := *invite
	return &copied, nil
}

func (m *mockInviteRepository) Consume(ctx context.Context, tx *sqlx.Tx, code string, usedBy int64) (int64, error) {
	invite, ok := m.invites[code]
	if !ok || !invite.IsRedeemable(m.now()) {
		return 0, model.ErrInviteInvalid
	}
	invite.Used = true
	invite.UsedBy = &usedBy
	return invite.InviterID, nil
}

type mockProgressRepository struct {
	counts      *model.ActivityCounts
	leaderboard []model.LeaderboardEntry
	err         error
}

func (m *mockProgressRepository) ActivityCounts(ctx context.Context, userID int64) (*model.ActivityCounts, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.counts, nil
}

func (m *mockProgressRepository) Leaderboard(ctx context.Context, userID int64) ([]model.LeaderboardEntry, error) {
	return m.leaderboard, nil
}
