package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nisser/internal/observability"
	"nisser/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second

	// DefaultClaimMinIdle is how long a message may sit unacked before another consumer takes it
	DefaultClaimMinIdle = 30 * time.Second

	// DefaultMaxDeliveries is how often a message is tried before it is dropped
	DefaultMaxDeliveries = 5
)

// EventHandler processes one decoded stream event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.NotificationEvent) error
}

// Manager orchestrates worker goroutines that consume the notification stream.
// A message is acked only after its handler succeeded; failed messages stay
// pending and are picked up again by the reclaim loop.
type Manager struct {
	consumer queue.Consumer
	handler  EventHandler
	cfg      ManagerConfig
	log      *zap.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	Stream         string
	Group          string
	ConsumerPrefix string        // Consumer names are "<prefix>-worker-N"
	WorkerCount    int           // Number of worker goroutines
	BatchSize      int64         // Messages per read
	BlockTimeout   time.Duration // Block time for XREADGROUP
	ClaimMinIdle   time.Duration // Idle time before XAUTOCLAIM takes a message over
	ClaimInterval  time.Duration // How often the reclaim loop runs
	MaxDeliveries  int64         // Deliveries after which a message is dropped
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Stream:        queue.StreamNotifications,
		Group:         queue.ConsumerGroupNotifications,
		WorkerCount:   DefaultWorkerCount,
		BatchSize:     DefaultBatchSize,
		BlockTimeout:  DefaultBlockTimeout,
		ClaimMinIdle:  DefaultClaimMinIdle,
		MaxDeliveries: DefaultMaxDeliveries,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig, log *zap.Logger) *Manager {
	def := DefaultManagerConfig()
	if cfg.Stream == "" {
		cfg.Stream = def.Stream
	}
	if cfg.Group == "" {
		cfg.Group = def.Group
	}
	if cfg.ConsumerPrefix == "" {
		cfg.ConsumerPrefix = defaultConsumerPrefix()
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = def.BlockTimeout
	}
	if cfg.ClaimMinIdle <= 0 {
		cfg.ClaimMinIdle = def.ClaimMinIdle
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = cfg.ClaimMinIdle / 2
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = def.MaxDeliveries
	}

	return &Manager{
		consumer: consumer,
		handler:  handler,
		cfg:      cfg,
		log:      log.Named("manager"),
	}
}

// Start begins the worker goroutines and the reclaim loop.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.cfg.Stream, m.cfg.Group); err != nil {
		m.cancel()
		return err
	}

	for i := 1; i <= m.cfg.WorkerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, m.consumerName(i))
	}

	m.wg.Add(1)
	go m.runReclaimer(m.cfg.ConsumerPrefix + "-reclaimer")

	m.log.Info("workers started",
		zap.Int("workers", m.cfg.WorkerCount),
		zap.String("stream", m.cfg.Stream),
		zap.String("group", m.cfg.Group))
	return nil
}

// Stop gracefully shuts down all workers.
// Blocks until all workers have finished.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.log.Info("workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()
	log := m.log.With(zap.Int("worker", workerID), zap.String("consumer", consumerName))

	// messages this consumer received before a crash are still ours
	m.processPending(log, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processMessages(log, consumerName)
		}
	}
}

func (m *Manager) processPending(log *zap.Logger, consumerName string) {
	messages, err := m.consumer.ReadPending(m.ctx, m.cfg.Stream, m.cfg.Group, consumerName, m.cfg.BatchSize)
	if err != nil {
		log.Warn("read pending failed", zap.Error(err))
		return
	}
	if len(messages) > 0 {
		log.Info("processing pending messages", zap.Int("count", len(messages)))
		m.handleMessages(log, messages)
	}
}

// processMessages reads and handles a batch of messages.
func (m *Manager) processMessages(log *zap.Logger, consumerName string) {
	messages, err := m.consumer.Read(m.ctx, m.cfg.Stream, m.cfg.Group, consumerName, m.cfg.BatchSize, m.cfg.BlockTimeout)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Warn("read failed", zap.Error(err))
		m.sleep(time.Second)
		return
	}

	m.handleMessages(log, messages)
}

// runReclaimer periodically takes over messages left unacked by failed or dead consumers.
func (m *Manager) runReclaimer(consumerName string) {
	defer m.wg.Done()
	log := m.log.With(zap.String("consumer", consumerName))

	ticker := time.NewTicker(m.cfg.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.reclaim(log, consumerName)
		}
	}
}

func (m *Manager) reclaim(log *zap.Logger, consumerName string) {
	messages, err := m.consumer.ClaimStale(m.ctx, m.cfg.Stream, m.cfg.Group, consumerName, m.cfg.ClaimMinIdle, m.cfg.BatchSize)
	if err != nil {
		if m.ctx.Err() == nil {
			log.Warn("claim stale failed", zap.Error(err))
		}
		return
	}

	retry := messages[:0]
	for _, msg := range messages {
		if msg.Deliveries > m.cfg.MaxDeliveries {
			log.Error("dropping message after too many deliveries",
				zap.String("msg_id", msg.ID),
				zap.String("type", msg.Event.Type),
				zap.Int64("event_id", msg.Event.EventID),
				zap.Int64("deliveries", msg.Deliveries))
			m.ack(log, msg, "dead")
			continue
		}
		retry = append(retry, msg)
	}
	m.handleMessages(log, retry)
}

// handleMessages runs the handler for each message and acks the ones that are done.
func (m *Manager) handleMessages(log *zap.Logger, messages []queue.Message) {
	for _, msg := range messages {
		if msg.Err != nil {
			log.Warn("dropping undecodable message", zap.String("msg_id", msg.ID), zap.Error(msg.Err))
			m.ack(log, msg, "malformed")
			continue
		}

		err := m.handler.HandleEvent(m.ctx, msg.Event)
		switch {
		case err == nil:
			m.ack(log, msg, "ok")
		case errors.Is(err, ErrUnknownEvent), errors.Is(err, queue.ErrMalformedMessage):
			log.Warn("dropping unprocessable message", zap.String("msg_id", msg.ID), zap.Error(err))
			m.ack(log, msg, "malformed")
		default:
			// left pending; the reclaim loop retries it after ClaimMinIdle
			log.Warn("handler failed",
				zap.String("msg_id", msg.ID),
				zap.String("type", msg.Event.Type),
				zap.Int64("event_id", msg.Event.EventID),
				zap.Error(err))
			observability.StreamMessagesHandled.WithLabelValues(msg.Event.Type, "error").Inc()
		}
	}
}

func (m *Manager) ack(log *zap.Logger, msg queue.Message, result string) {
	if err := m.consumer.Ack(m.ctx, m.cfg.Stream, m.cfg.Group, msg.ID); err != nil {
		log.Warn("ack failed", zap.String("msg_id", msg.ID), zap.Error(err))
		return
	}
	observability.StreamMessagesHandled.WithLabelValues(msg.Event.Type, result).Inc()
}

func (m *Manager) sleep(d time.Duration) {
	select {
	case <-m.ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) consumerName(workerID int) string {
	return fmt.Sprintf("%s-worker-%d", m.cfg.ConsumerPrefix, workerID)
}

// defaultConsumerPrefix keeps consumer names stable across restarts on the
// same host so pending messages are recovered by ReadPending.
func defaultConsumerPrefix() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}
