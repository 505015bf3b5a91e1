package model

import (
	"errors"
	"time"
)

// Follow request states. A rejected request, or an accepted one whose edge was
// later removed, may be moved back to pending by a new submission.
const (
	FollowRequestPending  = "pending"
	FollowRequestAccepted = "accepted"
	FollowRequestRejected = "rejected"
)

// SuggestionLimit caps the follow suggestion list.
const SuggestionLimit = 10

// Follow is a confirmed, directed edge.
type Follow struct {
	FollowerID  int64     `db:"follower_id" json:"follower_id"`
	FollowingID int64     `db:"following_id" json:"following_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FollowRequest is the single request row kept per ordered (requester, recipient) pair.
type FollowRequest struct {
	ID          int64     `db:"id" json:"id"`
	RequesterID int64     `db:"requester_id" json:"requester_id"`
	RecipientID int64     `db:"recipient_id" json:"recipient_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Joined field for display
	Requester *UserSummary `json:"requester,omitempty"`
}

// SubmitFollowRequest is the body of POST /follow/request.
type SubmitFollowRequest struct {
	RecipientID int64 `json:"recipientId" validate:"required,gt=0"`
}

// RespondFollowRequest is the body of POST /follow/respond.
type RespondFollowRequest struct {
	RequestID int64 `json:"requestId" validate:"required,gt=0"`
	Accept    *bool `json:"accept" validate:"required"`
}

var (
	// ErrCannotFollowSelf is returned when a user targets themselves.
	ErrCannotFollowSelf = errors.New("cannot follow yourself")

	// ErrAlreadyFollowing is returned when the follow edge already exists.
	ErrAlreadyFollowing = errors.New("already following this user")

	// ErrRequestAlreadyPending is returned on a duplicate submission.
	ErrRequestAlreadyPending = errors.New("request already pending")

	// ErrRequestNotFound is returned when no request matches the caller.
	ErrRequestNotFound = errors.New("request not found")

	// ErrRequestNotPending is returned when responding to an already answered request.
	ErrRequestNotPending = errors.New("request is no longer pending")
)
