package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nisser/internal/model"
	"nisser/internal/queue"
)

type failedMark struct {
	id       int64
	attempts int
	next     time.Time
	dead     bool
	lastErr  string
}

type fakeOutboxStore struct {
	due       []model.OutboxEvent
	claimErr  error
	published []int64
	failed    []failedMark
}

func (s *fakeOutboxStore) ClaimDue(ctx context.Context, limit int, staleAfter time.Duration) ([]model.OutboxEvent, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	due := s.due
	if len(due) > limit {
		due = due[:limit]
	}
	s.due = s.due[len(due):]
	return due, nil
}

func (s *fakeOutboxStore) MarkPublished(ctx context.Context, id int64) error {
	s.published = append(s.published, id)
	return nil
}

func (s *fakeOutboxStore) MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, dead bool, lastErr string) error {
	s.failed = append(s.failed, failedMark{id: id, attempts: attempts, next: nextAttemptAt, dead: dead, lastErr: lastErr})
	return nil
}

type fakePublisher struct {
	events []queue.NotificationEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, stream string, event queue.NotificationEvent) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

func newTestRelay(store OutboxStore, pub queue.Publisher, cfg RelayConfig) *Relay {
	r := NewRelay(store, pub, cfg, zap.NewNop())
	r.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRelayPublishesAndMarks(t *testing.T) {
	store := &fakeOutboxStore{due: []model.OutboxEvent{
		{ID: 1, EventType: model.EventReviewCreated, ActorID: 3, SubjectID: 10, Detail: "Cafe"},
		{ID: 2, EventType: model.EventCommentCreated, ActorID: 4, SubjectID: 10, RecipientID: ptrInt64(3)},
	}}
	pub := &fakePublisher{}
	relay := newTestRelay(store, pub, RelayConfig{})

	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, store.published)
	require.Len(t, pub.events, 2)
	assert.Equal(t, int64(1), pub.events[0].EventID)
	assert.Equal(t, "Cafe", pub.events[0].Detail)
	assert.Equal(t, int64(3), *pub.events[1].RecipientID)
	assert.Empty(t, store.failed)
}

func TestRelayRetriesWithBackoff(t *testing.T) {
	store := &fakeOutboxStore{due: []model.OutboxEvent{
		{ID: 7, EventType: model.EventFeedPostCreated, Attempts: 2},
	}}
	pub := &fakePublisher{err: errors.New("redis unavailable")}
	relay := newTestRelay(store, pub, RelayConfig{MaxAttempts: 5, BaseBackoff: time.Second, MaxBackoff: time.Minute})

	_, err := relay.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, store.failed, 1)
	mark := store.failed[0]
	assert.Equal(t, int64(7), mark.id)
	assert.Equal(t, 3, mark.attempts)
	assert.False(t, mark.dead)
	assert.Equal(t, relay.now().Add(4*time.Second), mark.next)
	assert.Contains(t, mark.lastErr, "redis unavailable")
	assert.Empty(t, store.published)
}

func TestRelayMarksDeadAtMaxAttempts(t *testing.T) {
	store := &fakeOutboxStore{due: []model.OutboxEvent{{ID: 7, EventType: model.EventFeedPostCreated, Attempts: 4}}}
	relay := newTestRelay(store, &fakePublisher{err: errors.New("boom")}, RelayConfig{MaxAttempts: 5})

	_, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, store.failed, 1)
	assert.True(t, store.failed[0].dead)
	assert.Equal(t, 5, store.failed[0].attempts)
}

func TestRelayClaimError(t *testing.T) {
	store := &fakeOutboxStore{claimErr: errors.New("db down")}
	relay := newTestRelay(store, &fakePublisher{}, RelayConfig{})

	n, err := relay.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestRelayBackoffCapped(t *testing.T) {
	relay := newTestRelay(&fakeOutboxStore{}, &fakePublisher{}, RelayConfig{BaseBackoff: time.Second, MaxBackoff: 10 * time.Second})

	assert.Equal(t, time.Second, relay.backoff(1))
	assert.Equal(t, 2*time.Second, relay.backoff(2))
	assert.Equal(t, 8*time.Second, relay.backoff(4))
	assert.Equal(t, 10*time.Second, relay.backoff(5))
	assert.Equal(t, 10*time.Second, relay.backoff(60))
}

func TestRelayToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := &fakeOutboxStore{due: []model.OutboxEvent{{ID: 3, EventType: model.EventFollowRequested, ActorID: 1, SubjectID: 4, RecipientID: ptrInt64(2)}}}
	relay := newTestRelay(store, queue.NewPublisher(client, zap.NewNop()), RelayConfig{})

	relay.Start(context.Background())
	require.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), queue.StreamNotifications).Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
	relay.Stop()

	assert.Equal(t, []int64{3}, store.published)
}

func ptrInt64(v int64) *int64 { return &v }
