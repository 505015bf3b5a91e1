package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"nisser/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetSummary(ctx context.Context, id int64) (*model.UserSummary, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	UpdateProfile(ctx context.Context, id int64, name string, image *string) (*model.User, error)
	CompleteOnboarding(ctx context.Context, id int64, interests []string, bio string, notifications bool) error
}

type FollowRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error)
	Delete(ctx context.Context, followerID, followingID int64) error
	Exists(ctx context.Context, followerID, followingID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	Suggestions(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
}

type FollowRequestRepository interface {
	// Upsert moves the pair's request into pending. ok is false when it already was.
	Upsert(ctx context.Context, tx *sqlx.Tx, requesterID, recipientID int64) (id int64, ok bool, err error)
	GetForRecipient(ctx context.Context, tx *sqlx.Tx, requestID, recipientID int64) (*model.FollowRequest, error)
	Resolve(ctx context.Context, tx *sqlx.Tx, requestID int64, status string) (bool, error)
	HasPending(ctx context.Context, requesterID, recipientID int64) (bool, error)
	ListPending(ctx context.Context, recipientID int64) ([]model.FollowRequest, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, review *model.Review) error
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	GetOwnerID(ctx context.Context, id int64) (int64, error)
	LockOwnerID(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error)
	Update(ctx context.Context, tx *sqlx.Tx, review *model.Review) error
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.Review, error)
	Feed(ctx context.Context, userID int64, limit int) ([]model.Review, error)
	ReplacePreferences(ctx context.Context, tx *sqlx.Tx, reviewID int64, prefs []model.ReviewPreferenceInput) error
	GetPreferences(ctx context.Context, reviewIDs []int64) (map[int64][]model.ReviewPreference, error)
}

type UsefulMarkRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64) error
	Exists(ctx context.Context, reviewID, userID int64) (bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64, content string) (*model.Comment, error)
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	Update(ctx context.Context, commentID, userID int64, content string) (*model.Comment, error)
	Delete(ctx context.Context, commentID int64) error
	ListByReview(ctx context.Context, reviewID int64) ([]model.Comment, error)
}

type FeedPostRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, post *model.FeedPost) error
	GetByID(ctx context.Context, id int64) (*model.FeedPost, error)
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]model.FeedPost, error)
}

type NotificationRepository interface {
	// CreateBatch inserts rows, skipping ones already written for the same source event.
	CreateBatch(ctx context.Context, notifications []model.Notification) (int64, error)
	List(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) error
	UnreadCount(ctx context.Context, recipientID int64) (int, error)
}

type InviteRepository interface {
	Create(ctx context.Context, invite *model.Invite) error
	GetByCode(ctx context.Context, code string) (*model.Invite, error)
	// Consume marks a redeemable invite used and returns its inviter.
	Consume(ctx context.Context, tx *sqlx.Tx, code string, usedBy int64) (int64, error)
}

type PreferenceRepository interface {
	List(ctx context.Context) ([]model.Preference, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
	// ClaimDue moves up to limit due rows into processing. Rows stuck in
	// processing for longer than staleAfter are claimed again.
	ClaimDue(ctx context.Context, limit int, staleAfter time.Duration) ([]model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, dead bool, lastErr string) error
}

type ProgressRepository interface {
	ActivityCounts(ctx context.Context, userID int64) (*model.ActivityCounts, error)
	Leaderboard(ctx context.Context, userID int64) ([]model.LeaderboardEntry, error)
}
