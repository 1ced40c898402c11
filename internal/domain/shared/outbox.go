package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the relay state of a stored event
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	// MaxRelayBackoff caps the delay between two relay attempts
	MaxRelayBackoff = 5 * time.Minute
)

var (
	ErrOutboxNotClaimable = NewKindError(KindState, "OUTBOX_NOT_CLAIMABLE", "only pending or failed outbox entries can be claimed")
	ErrOutboxNotDead      = NewKindError(KindState, "OUTBOX_NOT_DEAD", "only dead outbox entries can be re-queued")
)

// OutboxEntry is a domain event persisted next to the state change that
// raised it, relayed to the event bus by the outbox processor.
type OutboxEntry struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEntry wraps an event and its serialized payload as a pending entry
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (e *OutboxEntry) touch() time.Time {
	e.UpdatedAt = time.Now()
	return e.UpdatedAt
}

// CanRetry reports whether a failed entry still has relay attempts left
func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

// MarkProcessing claims the entry for a relay attempt
func (e *OutboxEntry) MarkProcessing() error {
	switch e.Status {
	case OutboxStatusPending, OutboxStatusFailed:
		e.Status = OutboxStatusProcessing
		e.touch()
		return nil
	default:
		return ErrOutboxNotClaimable
	}
}

// MarkSent records a successful relay
func (e *OutboxEntry) MarkSent() {
	now := e.touch()
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
}

// MarkFailed records a failed relay. The entry goes dead once its attempts
// are used up, otherwise it is scheduled with exponential backoff.
func (e *OutboxEntry) MarkFailed(errMsg string) {
	e.RetryCount++
	e.LastError = errMsg
	now := e.touch()

	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := now.Add(RelayBackoff(e.RetryCount))
	e.NextRetryAt = &next
}

// MarkDead dead-letters the entry without spending its remaining attempts,
// for payloads no retry can deliver.
func (e *OutboxEntry) MarkDead(errMsg string) {
	e.RetryCount++
	e.LastError = errMsg
	e.Status = OutboxStatusDead
	e.NextRetryAt = nil
	e.touch()
}

// RelayBackoff returns the delay before relay attempt n+1 (n >= 1):
// DefaultBaseBackoff doubled per attempt, capped at MaxRelayBackoff.
func RelayBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	backoff := DefaultBaseBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= MaxRelayBackoff {
			return MaxRelayBackoff
		}
	}
	return backoff
}

// ResetForRetry re-queues a dead entry with a fresh attempt budget
func (e *OutboxEntry) ResetForRetry() error {
	if !e.IsDead() {
		return ErrOutboxNotDead
	}
	e.Status = OutboxStatusPending
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	e.touch()
	return nil
}

func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// OutboxRepository persists outbox entries for the relay
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns failed entries whose next attempt is due before the given time
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// MarkProcessing claims the given entries and returns the ones it won
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteOlderThan removes sent entries processed before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
