package saga

import (
	"context"
	"time"

	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// Status is the lifecycle state recorded in a journal entry
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompensating Status = "COMPENSATING"
	StatusCompleted    Status = "COMPLETED"
	StatusFailed       Status = "FAILED"
)

// Entry is one append-only journal row. Querying the latest entry per saga id
// gives the current state of an execution.
type Entry struct {
	SagaID   string
	Workflow string
	Status   Status
	Step     string
	Errors   []string
	TraceID  string
	SpanID   string
	At       time.Time
}

// NewEntry builds an entry stamped with the trace and span active in ctx
func NewEntry(ctx context.Context, sagaID, workflow string, status Status, step string, errs []string) Entry {
	return Entry{
		SagaID:   sagaID,
		Workflow: workflow,
		Status:   status,
		Step:     step,
		Errors:   errs,
		TraceID:  telemetry.GetTraceID(ctx),
		SpanID:   telemetry.GetSpanID(ctx),
		At:       time.Now().UTC(),
	}
}

// Journal persists saga transitions
type Journal interface {
	Append(ctx context.Context, entry Entry) error
}

// NopJournal discards entries
type NopJournal struct{}

// Append implements Journal
func (NopJournal) Append(context.Context, Entry) error { return nil }
