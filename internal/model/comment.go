package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a review
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	ReviewID  int64     `db:"review_id" json:"review_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Joined field for display
	User *UserSummary `json:"user,omitempty"`
}

// CreateCommentRequest is the body of POST /reviews/comments.
type CreateCommentRequest struct {
	ReviewID int64  `json:"reviewId" validate:"required,gt=0"`
	Content  string `json:"content" validate:"required,max=2000"`
}

// UpdateCommentRequest is the body of PUT /reviews/comments/{id}.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

var (
	// ErrCommentNotFound is returned when a comment cannot be found
	ErrCommentNotFound = errors.New("comment not found")
)
