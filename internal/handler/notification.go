package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type notificationService interface {
	List(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	UnreadCount(ctx context.Context, userID int64) (int, error)
}

type NotificationHandler struct {
	notifications notificationService
	log           *zap.Logger
}

func NewNotificationHandler(notifications notificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		log:           log.Named("notification"),
	}
}

// List returns the caller's newest notifications.
// GET /notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.notifications.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "list notifications")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": nonNil(items),
	})
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "unread count")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkRead flags one of the caller's notifications as read.
// POST /notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.MarkReadRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, req.NotificationID); err != nil {
		writeError(w, h.log, err, "mark notification read")
		return
	}
	httputil.WriteSuccess(w)
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), userID); err != nil {
		writeError(w, h.log, err, "mark all notifications read")
		return
	}
	httputil.WriteSuccess(w)
}
