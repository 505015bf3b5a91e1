package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"nisser/internal/model"
)

type outboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// Enqueue appends an event inside the caller's transaction.
func (r *outboxRepository) Enqueue(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	query := `
		INSERT INTO notification_outbox (event_type, actor_id, subject_id, recipient_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, attempts, next_attempt_at, created_at
	`
	err := tx.QueryRowxContext(ctx, query,
		event.EventType,
		event.ActorID,
		event.SubjectID,
		event.RecipientID,
		event.Detail,
	).Scan(&event.ID, &event.Status, &event.Attempts, &event.NextAttemptAt, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue outbox event %s: %w", event.EventType, err)
	}
	return nil
}

// ClaimDue locks due rows with SKIP LOCKED so concurrent relays never claim
// the same row, and marks them processing in the same statement.
func (r *outboxRepository) ClaimDue(ctx context.Context, limit int, staleAfter time.Duration) ([]model.OutboxEvent, error) {
	query := `
		WITH due AS (
			SELECT id FROM notification_outbox
			WHERE (status = 'pending' AND next_attempt_at <= NOW())
			   OR (status = 'processing' AND claimed_at < NOW() - ($2 * INTERVAL '1 second'))
			ORDER BY id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE notification_outbox o
		SET status = 'processing', claimed_at = NOW()
		FROM due
		WHERE o.id = due.id
		RETURNING o.id, o.event_type, o.actor_id, o.subject_id, o.recipient_id, o.detail,
		          o.status, o.attempts, o.next_attempt_at, o.last_error, o.created_at, o.published_at
	`
	events := []model.OutboxEvent{}
	if err := r.db.SelectContext(ctx, &events, query, limit, staleAfter.Seconds()); err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id int64) error {
	query := `
		UPDATE notification_outbox
		SET status = 'published', published_at = NOW(), last_error = NULL
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark outbox event %d published: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed publish. The row goes back to pending for a
// later attempt, or to dead once the caller gives up on it.
func (r *outboxRepository) MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, dead bool, lastErr string) error {
	status := model.OutboxPending
	if dead {
		status = model.OutboxDead
	}
	query := `
		UPDATE notification_outbox
		SET status = $2, attempts = $3, next_attempt_at = $4, last_error = $5, claimed_at = NULL
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, status, attempts, nextAttemptAt, lastErr); err != nil {
		return fmt.Errorf("mark outbox event %d failed: %w", id, err)
	}
	return nil
}
