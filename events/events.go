package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeInterestPosted    EventType = "interest_posted"
	EventTypeInterestAccrued   EventType = "interest_accrued"
	EventTypeFeeCharged        EventType = "fee_charged"
	EventTypeIntegrityMismatch EventType = "integrity_mismatch"
	EventTypeBatchCompleted    EventType = "batch_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// InterestPostedEvent is emitted after a monthly interest credit commits
type InterestPostedEvent struct {
	AccountID     uuid.UUID
	AccountNumber string
	Month         string
	Interest      decimal.Decimal
	NewBalance    decimal.Decimal
	TransactionID uuid.UUID
}

func (e InterestPostedEvent) Type() EventType {
	return EventTypeInterestPosted
}

// InterestAccruedEvent is emitted after a daily accrual commits
type InterestAccruedEvent struct {
	AccountID         uuid.UUID
	AccountNumber     string
	AccrualDate       time.Time
	Interest          decimal.Decimal
	CumulativeAccrued decimal.Decimal
}

func (e InterestAccruedEvent) Type() EventType {
	return EventTypeInterestAccrued
}

// FeeChargedEvent is emitted after a maintenance fee debit commits
type FeeChargedEvent struct {
	AccountID     uuid.UUID
	AccountNumber string
	Month         string
	Fee           decimal.Decimal
	NewBalance    decimal.Decimal
	TransactionID uuid.UUID
}

func (e FeeChargedEvent) Type() EventType {
	return EventTypeFeeCharged
}

// IntegrityMismatchEvent reports a stored balance that disagrees with the ledger
type IntegrityMismatchEvent struct {
	AccountID     uuid.UUID
	AccountNumber string
	StoredBalance decimal.Decimal
	LedgerBalance decimal.Decimal
	Difference    decimal.Decimal
}

func (e IntegrityMismatchEvent) Type() EventType {
	return EventTypeIntegrityMismatch
}

// BatchCompletedEvent summarises a finished batch run
type BatchCompletedEvent struct {
	Kind              string
	Period            string
	DryRun            bool
	AccountsProcessed int
	PeriodsPosted     int
	Skipped           int
	Failures          int
	TotalAmount       decimal.Decimal
	Duration          time.Duration
}

func (e BatchCompletedEvent) Type() EventType {
	return EventTypeBatchCompleted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started by Emit has returned.
// Batch commands call it before exiting so no event is lost.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Handlers outlive the unit of work, so they get a detached context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
