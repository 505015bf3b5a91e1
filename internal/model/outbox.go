package model

import "time"

// Outbox event types. Each one is written in the same transaction as the write
// that caused it and later turned into notification rows.
const (
	EventReviewCreated      = "review_created"
	EventFeedPostCreated    = "feed_post_created"
	EventCommentCreated     = "comment_created"
	EventReviewMarkedUseful = "review_marked_useful"
	EventFollowRequested    = "follow_requested"
)

// Outbox row states.
const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxPublished  = "published"
	OutboxDead       = "dead"
)

// OutboxEvent is a pending side effect committed alongside a primary write.
//
// SubjectID is the review, feed post or follow request the event is about.
// RecipientID is set for single-recipient events; fan-out events resolve
// their recipients (the actor's followers) at delivery time.
type OutboxEvent struct {
	ID            int64      `db:"id"`
	EventType     string     `db:"event_type"`
	ActorID       int64      `db:"actor_id"`
	SubjectID     int64      `db:"subject_id"`
	RecipientID   *int64     `db:"recipient_id"`
	Detail        string     `db:"detail"`
	Status        string     `db:"status"`
	Attempts      int        `db:"attempts"`
	NextAttemptAt time.Time  `db:"next_attempt_at"`
	LastError     *string    `db:"last_error"`
	CreatedAt     time.Time  `db:"created_at"`
	PublishedAt   *time.Time `db:"published_at"`
}

// NewReviewCreatedEvent fans out to the author's followers.
func NewReviewCreatedEvent(authorID, reviewID int64, locationName string) *OutboxEvent {
	return &OutboxEvent{EventType: EventReviewCreated, ActorID: authorID, SubjectID: reviewID, Detail: locationName}
}

// NewFeedPostCreatedEvent fans out to the author's followers.
func NewFeedPostCreatedEvent(authorID, postID int64) *OutboxEvent {
	return &OutboxEvent{EventType: EventFeedPostCreated, ActorID: authorID, SubjectID: postID}
}

// NewCommentCreatedEvent notifies the review owner.
func NewCommentCreatedEvent(commenterID, reviewID, reviewOwnerID int64) *OutboxEvent {
	return &OutboxEvent{EventType: EventCommentCreated, ActorID: commenterID, SubjectID: reviewID, RecipientID: &reviewOwnerID}
}

// NewReviewMarkedUsefulEvent notifies the review owner.
func NewReviewMarkedUsefulEvent(markerID, reviewID, reviewOwnerID int64) *OutboxEvent {
	return &OutboxEvent{EventType: EventReviewMarkedUseful, ActorID: markerID, SubjectID: reviewID, RecipientID: &reviewOwnerID}
}

// NewFollowRequestedEvent notifies the request recipient.
func NewFollowRequestedEvent(requesterID, requestID, recipientID int64) *OutboxEvent {
	return &OutboxEvent{EventType: EventFollowRequested, ActorID: requesterID, SubjectID: requestID, RecipientID: &recipientID}
}
