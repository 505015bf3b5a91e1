package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"nisser/internal/model"
	"nisser/internal/observability"
	"nisser/internal/queue"
)

// insertChunkSize keeps a single multi-row insert well below postgres' parameter limit.
const insertChunkSize = 500

// ErrUnknownEvent is returned for event types no handler exists for.
// Retrying cannot fix it, so the message is dropped.
var ErrUnknownEvent = errors.New("unknown event type")

// FollowerProvider returns the ids of a user's followers.
type FollowerProvider interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// UserLookup resolves the public identity used in notification text.
type UserLookup interface {
	GetSummary(ctx context.Context, id int64) (*model.UserSummary, error)
}

// NotificationWriter persists notification rows, skipping ones already written
// for the same source event and recipient.
type NotificationWriter interface {
	CreateBatch(ctx context.Context, notifications []model.Notification) (int64, error)
}

// Handler turns notification events into per-recipient notification rows.
type Handler struct {
	followers FollowerProvider
	users     UserLookup
	writer    NotificationWriter
	log       *zap.Logger
	tracer    trace.Tracer
}

// NewHandler creates a new event handler.
func NewHandler(followers FollowerProvider, users UserLookup, writer NotificationWriter, log *zap.Logger) *Handler {
	return &Handler{
		followers: followers,
		users:     users,
		writer:    writer,
		log:       log.Named("handler"),
		tracer:    observability.Tracer("worker"),
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
// It is safe to call more than once for the same event.
func (h *Handler) HandleEvent(ctx context.Context, event queue.NotificationEvent) error {
	ctx, span := h.tracer.Start(ctx, "worker.HandleEvent", trace.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.Int64("event.id", event.EventID),
	))
	defer span.End()

	startTime := time.Now()
	var (
		written int64
		err     error
	)

	switch event.Type {
	case model.EventReviewCreated:
		written, err = h.fanOut(ctx, event, model.NotificationTypeNewReview, model.ReviewLink(event.SubjectID),
			func(name string) string { return fmt.Sprintf("%s reviewed %s", name, event.Detail) })
	case model.EventFeedPostCreated:
		written, err = h.fanOut(ctx, event, model.NotificationTypeNewPost, model.FeedLink,
			func(name string) string { return name + " is looking for recommendations" })
	case model.EventCommentCreated:
		written, err = h.direct(ctx, event, model.NotificationTypeNewComment, "Commented on your review", model.ReviewLink(event.SubjectID))
	case model.EventReviewMarkedUseful:
		written, err = h.direct(ctx, event, model.NotificationTypeReviewUseful, "Found your review useful", model.ReviewLink(event.SubjectID))
	case model.EventFollowRequested:
		written, err = h.direct(ctx, event, model.NotificationTypeFollowRequest, "Sent you a follow request", model.FriendsLink)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownEvent, event.Type)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int64("notifications.written", written))
	h.log.Debug("event handled",
		zap.String("type", event.Type),
		zap.Int64("event_id", event.EventID),
		zap.Int64("written", written),
		zap.Duration("duration", time.Since(startTime)))
	return nil
}

// fanOut notifies every current follower of the actor.
func (h *Handler) fanOut(ctx context.Context, event queue.NotificationEvent, notifType, link string, render func(name string) string) (int64, error) {
	followerIDs, err := h.followers.GetFollowerIDs(ctx, event.ActorID)
	if err != nil {
		return 0, fmt.Errorf("get followers of %d: %w", event.ActorID, err)
	}
	if len(followerIDs) == 0 {
		return 0, nil
	}

	name, err := h.actorName(ctx, event.ActorID)
	if err != nil {
		return 0, err
	}
	content := render(name)

	rows := make([]model.Notification, 0, len(followerIDs))
	for _, recipientID := range followerIDs {
		if recipientID == event.ActorID {
			continue
		}
		rows = append(rows, h.row(event, recipientID, notifType, content, link))
	}
	return h.write(ctx, notifType, rows)
}

// direct notifies the single recipient carried by the event.
func (h *Handler) direct(ctx context.Context, event queue.NotificationEvent, notifType, content, link string) (int64, error) {
	if event.RecipientID == nil {
		return 0, fmt.Errorf("%w: %s without recipient", queue.ErrMalformedMessage, event.Type)
	}
	recipientID := *event.RecipientID
	if recipientID == event.ActorID {
		return 0, nil
	}
	return h.write(ctx, notifType, []model.Notification{h.row(event, recipientID, notifType, content, link)})
}

func (h *Handler) row(event queue.NotificationEvent, recipientID int64, notifType, content, link string) model.Notification {
	senderID := event.ActorID
	sourceID := event.EventID
	return model.Notification{
		RecipientID:   recipientID,
		SenderID:      &senderID,
		Type:          notifType,
		Content:       content,
		Link:          link,
		SourceEventID: &sourceID,
	}
}

func (h *Handler) write(ctx context.Context, notifType string, rows []model.Notification) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := h.writer.CreateBatch(ctx, rows[start:end])
		if err != nil {
			return total, fmt.Errorf("write notifications: %w", err)
		}
		total += n
	}
	observability.NotificationsWritten.WithLabelValues(notifType).Add(float64(total))
	return total, nil
}

// actorName falls back to "Someone" for users without a name or who no longer exist.
func (h *Handler) actorName(ctx context.Context, actorID int64) (string, error) {
	summary, err := h.users.GetSummary(ctx, actorID)
	if errors.Is(err, model.ErrUserNotFound) {
		return "Someone", nil
	}
	if err != nil {
		return "", fmt.Errorf("get actor %d: %w", actorID, err)
	}
	if summary.Name == nil || *summary.Name == "" {
		return "Someone", nil
	}
	return *summary.Name, nil
}
