package service

import (
	"context"

	"nisser/internal/model"
	"nisser/internal/repository"
)

// NotificationService is the read side of notifications. Rows are written
// asynchronously by the stream workers.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the newest notifications for userID with their senders.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.repo.List(ctx, userID, model.NotificationListLimit)
}

// MarkRead is scoped to the recipient; other users' ids are silently ignored.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}
