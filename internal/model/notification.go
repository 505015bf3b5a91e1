package model

import (
	"fmt"
	"time"
)

// Notification types
const (
	NotificationTypeNewReview     = "NEW_REVIEW"
	NotificationTypeNewPost       = "NEW_POST"
	NotificationTypeNewComment    = "NEW_COMMENT"
	NotificationTypeReviewUseful  = "REVIEW_USEFUL"
	NotificationTypeFollowRequest = "FOLLOW_REQUEST"
)

// NotificationListLimit is the number of notifications returned by a list call.
const NotificationListLimit = 50

// Notification represents a single notification record in the database.
type Notification struct {
	ID            int64     `db:"id" json:"id"`
	RecipientID   int64     `db:"recipient_id" json:"recipient_id"`
	SenderID      *int64    `db:"sender_id" json:"sender_id"`
	Type          string    `db:"type" json:"type"`
	Content       string    `db:"content" json:"content"`
	Link          string    `db:"link" json:"link"`
	IsRead        bool      `db:"is_read" json:"is_read"`
	SourceEventID *int64    `db:"source_event_id" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// Joined field for display
	Sender *UserSummary `json:"sender"`
}

// MarkReadRequest is the body of POST /notifications/read.
type MarkReadRequest struct {
	NotificationID int64 `json:"notificationId" validate:"required,gt=0"`
}

// ReviewLink is the deep link to a review page.
func ReviewLink(reviewID int64) string {
	return fmt.Sprintf("/dashboard/profile/reviews/%d", reviewID)
}

// Deep links for notifications that do not point to a single review.
const (
	FeedLink    = "/?tab=feed"
	FriendsLink = "/dashboard/profile/friends"
)
