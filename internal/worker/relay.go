package worker

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nisser/internal/model"
	"nisser/internal/observability"
	"nisser/internal/queue"
)

// OutboxStore is the part of the outbox repository the relay drives.
type OutboxStore interface {
	ClaimDue(ctx context.Context, limit int, staleAfter time.Duration) ([]model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, dead bool, lastErr string) error
}

// RelayConfig holds configuration for the outbox relay.
type RelayConfig struct {
	PollInterval time.Duration // Pause between empty polls
	BatchSize    int           // Rows claimed per poll
	MaxAttempts  int           // Failed publishes before a row is marked dead
	PublishRate  float64       // Publishes per second, 0 = unlimited
	StaleAfter   time.Duration // Processing rows older than this are claimed again
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

// DefaultRelayConfig returns sensible defaults.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		PollInterval: time.Second,
		BatchSize:    100,
		MaxAttempts:  10,
		PublishRate:  500,
		StaleAfter:   time.Minute,
		BaseBackoff:  time.Second,
		MaxBackoff:   5 * time.Minute,
	}
}

// Relay moves committed outbox rows onto the notification stream.
// Delivery is at least once: a row whose MarkPublished fails is published
// again after StaleAfter, and the stream handler tolerates the duplicate.
type Relay struct {
	store     OutboxStore
	publisher queue.Publisher
	limiter   *rate.Limiter
	cfg       RelayConfig
	log       *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRelay creates a new outbox relay.
func NewRelay(store OutboxStore, publisher queue.Publisher, cfg RelayConfig, log *zap.Logger) *Relay {
	def := DefaultRelayConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.PublishRate > 0 {
		burst := int(cfg.PublishRate)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.PublishRate), burst)
	}

	return &Relay{
		store:     store,
		publisher: publisher,
		limiter:   limiter,
		cfg:       cfg,
		log:       log.Named("relay"),
		tracer:    observability.Tracer("relay"),
		now:       time.Now,
	}
}

// Start runs the poll loop in the background until Stop is called or ctx ends.
func (r *Relay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()

	r.log.Info("outbox relay started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("batch_size", r.cfg.BatchSize))
}

// Stop halts the poll loop and waits for the in-flight batch.
func (r *Relay) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.log.Info("outbox relay stopped")
}

func (r *Relay) run(ctx context.Context) {
	for {
		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.log.Warn("relay poll failed", zap.Error(err))
		}

		// a full batch means more rows are probably waiting
		if err == nil && n >= r.cfg.BatchSize {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

// RunOnce claims one batch of due rows and publishes them.
// Returns the number of rows claimed.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.store.ClaimDue(ctx, r.cfg.BatchSize, r.cfg.StaleAfter)
	if err != nil {
		return 0, err
	}

	for _, event := range events {
		if err := r.limiter.Wait(ctx); err != nil {
			// rows left in processing are reclaimed after StaleAfter
			return len(events), err
		}
		r.relay(ctx, event)
	}
	return len(events), nil
}

func (r *Relay) relay(ctx context.Context, event model.OutboxEvent) {
	ctx, span := r.tracer.Start(ctx, "relay.Publish", trace.WithAttributes(
		attribute.String("event.type", event.EventType),
		attribute.Int64("event.id", event.ID),
		attribute.Int("event.attempts", event.Attempts),
	))
	defer span.End()

	_, err := r.publisher.Publish(ctx, queue.StreamNotifications, queue.FromOutbox(event))
	if err == nil {
		if markErr := r.store.MarkPublished(ctx, event.ID); markErr != nil {
			r.log.Warn("mark published failed", zap.Int64("event_id", event.ID), zap.Error(markErr))
		}
		observability.OutboxRelayed.WithLabelValues(event.EventType, "published").Inc()
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	attempts := event.Attempts + 1
	dead := attempts >= r.cfg.MaxAttempts
	next := r.now().Add(r.backoff(attempts))

	result := "retry"
	if dead {
		result = "dead"
		r.log.Error("outbox event dead after max attempts",
			zap.Int64("event_id", event.ID),
			zap.String("type", event.EventType),
			zap.Int("attempts", attempts),
			zap.Error(err))
	} else {
		r.log.Warn("publish failed, will retry",
			zap.Int64("event_id", event.ID),
			zap.String("type", event.EventType),
			zap.Int("attempts", attempts),
			zap.Time("next_attempt_at", next),
			zap.Error(err))
	}

	if markErr := r.store.MarkFailed(ctx, event.ID, attempts, next, dead, err.Error()); markErr != nil {
		r.log.Warn("mark failed failed", zap.Int64("event_id", event.ID), zap.Error(markErr))
	}
	observability.OutboxRelayed.WithLabelValues(event.EventType, result).Inc()
}

// backoff doubles from BaseBackoff per attempt, capped at MaxBackoff.
func (r *Relay) backoff(attempts int) time.Duration {
	d := r.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= r.cfg.MaxBackoff {
			return r.cfg.MaxBackoff
		}
	}
	if d > r.cfg.MaxBackoff {
		return r.cfg.MaxBackoff
	}
	return d
}
