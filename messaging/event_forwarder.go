package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"accrual/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// StreamName is the JetStream stream that retains forwarded events
const StreamName = "accrual_events"

const subjectPrefix = "accrual.events."

// Publisher sends raw payloads to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// PublishRecorder counts forwarded events
type PublishRecorder interface {
	RecordEventPublished(eventType string)
}

// Envelope wraps a forwarded event
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// SubjectFor maps an event type to its subject
func SubjectFor(eventType events.EventType) string {
	return subjectPrefix + string(eventType)
}

// AllSubjects returns every subject the forwarder publishes to
func AllSubjects() []string {
	return []string{
		SubjectFor(events.EventTypeInterestPosted),
		SubjectFor(events.EventTypeInterestAccrued),
		SubjectFor(events.EventTypeFeeCharged),
		SubjectFor(events.EventTypeIntegrityMismatch),
		SubjectFor(events.EventTypeBatchCompleted),
	}
}

// EventForwarder republishes committed bus events to the message bus so
// downstream systems see postings without polling the database
type EventForwarder struct {
	publisher Publisher
	recorder  PublishRecorder
	now       func() time.Time
}

// NewEventForwarder creates a forwarder. recorder may be nil.
func NewEventForwarder(publisher Publisher, recorder PublishRecorder) *EventForwarder {
	return &EventForwarder{
		publisher: publisher,
		recorder:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register subscribes the forwarder to every event type on bus
func (f *EventForwarder) Register(bus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventTypeInterestPosted,
		events.EventTypeInterestAccrued,
		events.EventTypeFeeCharged,
		events.EventTypeIntegrityMismatch,
		events.EventTypeBatchCompleted,
	} {
		bus.Subscribe(eventType, f.handle)
	}
}

func (f *EventForwarder) handle(ctx context.Context, event events.Event) {
	if err := f.Forward(ctx, event); err != nil {
		// Postings are already committed, so a lost notification is only logged
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to forward event")
	}
}

// Forward publishes one event inside an envelope
func (f *EventForwarder) Forward(ctx context.Context, event events.Event) error {
	subject := SubjectFor(event.Type())
	data, err := f.envelope(event)
	if err != nil {
		return err
	}

	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if f.recorder != nil {
		f.recorder.RecordEventPublished(string(event.Type()))
	}
	return nil
}

func (f *EventForwarder) envelope(event events.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now(),
		SourceService: "accrual",
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, nil
}
