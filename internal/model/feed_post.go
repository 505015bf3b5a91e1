package model

import (
	"errors"
	"time"
)

// FeedPostListLimit caps the feed post list.
const FeedPostListLimit = 50

// FeedPost is a short text post asking followers for recommendations.
type FeedPost struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	Type      string    `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Joined field for display
	User *UserSummary `json:"user,omitempty"`
}

// CreateFeedPostRequest is the body of POST /feed/posts.
type CreateFeedPostRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
	Type    string `json:"type" validate:"omitempty,max=50"`
}

var (
	// ErrFeedPostNotFound is returned when a feed post cannot be found
	ErrFeedPostNotFound = errors.New("post not found")
)
