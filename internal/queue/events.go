package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nisser/internal/model"
)

// Stream names
const (
	StreamNotifications = "stream:notifications"
)

// Consumer group name for notification workers
const (
	ConsumerGroupNotifications = "notification_workers"
)

// StreamMaxLen bounds the stream; XADD trims approximately past it.
const StreamMaxLen = 100000

// ErrMalformedMessage marks stream entries that cannot be decoded.
var ErrMalformedMessage = errors.New("malformed stream message")

// NotificationEvent is the stream form of an outbox row. EventID is the outbox
// row id and becomes the notifications' source_event_id, which keeps
// redelivery idempotent.
type NotificationEvent struct {
	EventID     int64  `json:"event_id"`
	Type        string `json:"type"`
	ActorID     int64  `json:"actor_id"`
	SubjectID   int64  `json:"subject_id"`
	RecipientID *int64 `json:"recipient_id,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// FromOutbox converts a claimed outbox row into a stream event.
func FromOutbox(e model.OutboxEvent) NotificationEvent {
	return NotificationEvent{
		EventID:     e.ID,
		Type:        e.EventType,
		ActorID:     e.ActorID,
		SubjectID:   e.SubjectID,
		RecipientID: e.RecipientID,
		Detail:      e.Detail,
		Timestamp:   e.CreatedAt.Unix(),
	}
}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventID int64, eventType string, actorID, subjectID int64, recipientID *int64, detail string) NotificationEvent {
	return NotificationEvent{
		EventID:     eventID,
		Type:        eventType,
		ActorID:     actorID,
		SubjectID:   subjectID,
		RecipientID: recipientID,
		Detail:      detail,
		Timestamp:   time.Now().Unix(),
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so the event is JSON in a "data" field.
func (e NotificationEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseNotificationEvent parses an event from Redis stream message values.
func ParseNotificationEvent(values map[string]interface{}) (NotificationEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return NotificationEvent{}, fmt.Errorf("%w: missing or invalid 'data' field", ErrMalformedMessage)
	}

	var event NotificationEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return NotificationEvent{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if event.EventID <= 0 || event.Type == "" {
		return NotificationEvent{}, fmt.Errorf("%w: missing event id or type", ErrMalformedMessage)
	}
	return event, nil
}
