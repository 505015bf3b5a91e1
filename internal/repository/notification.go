package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"nisser/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateBatch inserts all rows in one statement. Rows whose
// (source_event_id, recipient_id) already exist are skipped, so a redelivered
// event writes nothing new. It returns the number of rows inserted.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []model.Notification) (int64, error) {
	if len(notifications) == 0 {
		return 0, nil
	}

	const cols = 6
	placeholders := make([]string, 0, len(notifications))
	args := make([]interface{}, 0, len(notifications)*cols)
	for i, n := range notifications {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, n.RecipientID, n.SenderID, n.Type, n.Content, n.Link, n.SourceEventID)
	}

	query := `
		INSERT INTO notifications (recipient_id, sender_id, type, content, link, source_event_id)
		VALUES ` + strings.Join(placeholders, ", ") + `
		ON CONFLICT (source_event_id, recipient_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// List returns the newest notifications of recipientID with the sender's identity.
func (r *notificationRepository) List(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error) {
	query := `
		SELECT n.id, n.recipient_id, n.sender_id, n.type, n.content, n.link, n.is_read,
		       n.created_at, n.updated_at,
		       u.name AS sender_name, u.image AS sender_image
		FROM notifications n
		LEFT JOIN users u ON u.id = n.sender_id
		WHERE n.recipient_id = $1
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2
	`

	type notifRow struct {
		ID          int64     `db:"id"`
		RecipientID int64     `db:"recipient_id"`
		SenderID    *int64    `db:"sender_id"`
		Type        string    `db:"type"`
		Content     string    `db:"content"`
		Link        string    `db:"link"`
		IsRead      bool      `db:"is_read"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
		SenderName  *string   `db:"sender_name"`
		SenderImage *string   `db:"sender_image"`
	}

	var rows []notifRow
	if err := r.db.SelectContext(ctx, &rows, query, recipientID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	notifications := make([]model.Notification, len(rows))
	for i, row := range rows {
		n := model.Notification{
			ID:          row.ID,
			RecipientID: row.RecipientID,
			SenderID:    row.SenderID,
			Type:        row.Type,
			Content:     row.Content,
			Link:        row.Link,
			IsRead:      row.IsRead,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		}
		if row.SenderID != nil {
			n.Sender = &model.UserSummary{
				ID:    *row.SenderID,
				Name:  row.SenderName,
				Image: row.SenderImage,
			}
		}
		notifications[i] = n
	}

	return notifications, nil
}

// MarkRead marks one notification read. Ids owned by another recipient are left untouched.
func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, notificationID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true, updated_at = NOW()
		WHERE id = $1 AND recipient_id = $2 AND is_read = false
	`
	if _, err := r.db.ExecContext(ctx, query, notificationID, recipientID); err != nil {
		return fmt.Errorf("mark notification as read: %w", err)
	}
	return nil
}

// MarkAllRead marks all notifications for a recipient as read.
func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true, updated_at = NOW()
		WHERE recipient_id = $1 AND is_read = false
	`
	if _, err := r.db.ExecContext(ctx, query, recipientID); err != nil {
		return fmt.Errorf("mark all notifications as read: %w", err)
	}
	return nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("get unread count: %w", err)
	}
	return count, nil
}
