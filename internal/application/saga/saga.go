// Package saga runs a workflow as ordered stages of compensable steps.
//
// Stages execute strictly in order. Steps inside one stage run concurrently;
// the first failure cancels its siblings. When any step fails, every step that
// completed (including siblings in the failing stage) is compensated in
// reverse completion order. Failed steps are never retried.
package saga

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Step is one unit of forward work and its undo. Compensate may be nil for
// steps without side effects.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Stage groups steps that may run concurrently
type Stage struct {
	Name  string
	Steps []Step
}

// Sequential wraps a single step as its own stage
func Sequential(step Step) Stage {
	return Stage{Name: step.Name, Steps: []Step{step}}
}

// Concurrent builds a stage whose steps run in parallel
func Concurrent(name string, steps ...Step) Stage {
	return Stage{Name: name, Steps: steps}
}

// Error is returned by Run when a step fails. It wraps the step's error so
// callers can classify it with errors.Is / errors.As.
type Error struct {
	Workflow string
	SagaID   string
	Step     string
	Cause    error
	// CompensationErrors lists undo failures; these leave state that needs
	// manual repair.
	CompensationErrors []error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s saga %s failed at step %s: %v", e.Workflow, e.SagaID, e.Step, e.Cause)
	if len(e.CompensationErrors) > 0 {
		msg += fmt.Sprintf(" (%d compensation failures)", len(e.CompensationErrors))
	}
	return msg
}

// Unwrap returns the step error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Compensated reports whether every undo succeeded
func (e *Error) Compensated() bool {
	return len(e.CompensationErrors) == 0
}

// Metrics receives saga outcomes
type Metrics interface {
	RecordSaga(ctx context.Context, workflow string, outcome string, duration time.Duration)
	RecordCompensation(ctx context.Context, workflow, step string, err error)
}

// Outcome labels
const (
	OutcomeCompleted   = "completed"
	OutcomeCompensated = "compensated"
	OutcomeFailed      = "failed"
)

// Runner executes stages for one workflow
type Runner struct {
	workflow string
	journal  Journal
	logger   *zap.Logger
	metrics  Metrics
}

// Option configures a Runner
type Option func(*Runner)

// WithJournal records transitions in j
func WithJournal(j Journal) Option {
	return func(r *Runner) {
		r.journal = j
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics reports outcomes to m
func WithMetrics(m Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a runner for the named workflow
func NewRunner(workflow string, opts ...Option) *Runner {
	r := &Runner{
		workflow: workflow,
		journal:  NopJournal{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the stages in order. sagaID identifies the execution in the
// journal and logs.
func (r *Runner) Run(ctx context.Context, sagaID string, stages ...Stage) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "saga."+r.workflow,
		telemetry.WithAttribute(telemetry.SpanAttrSagaID, sagaID),
	)
	defer span.End()

	log := r.logger.With(zap.String("workflow", r.workflow), zap.String("saga_id", sagaID))
	r.record(ctx, NewEntry(ctx, sagaID, r.workflow, StatusStarted, "", nil))

	completed := make([]Step, 0)
	for _, stage := range stages {
		done, failedStep, err := r.runStage(ctx, sagaID, stage)
		completed = append(completed, done...)
		if err == nil {
			continue
		}

		log.Warn("Saga step failed, compensating",
			zap.String("step", failedStep),
			zap.Int("completed_steps", len(completed)),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)

		sagaErr := &Error{Workflow: r.workflow, SagaID: sagaID, Step: failedStep, Cause: err}
		r.record(ctx, NewEntry(ctx, sagaID, r.workflow, StatusCompensating, failedStep, []string{err.Error()}))
		sagaErr.CompensationErrors = r.compensate(ctx, sagaID, completed, log)

		messages := []string{fmt.Sprintf("step %s failed: %v", failedStep, err)}
		for _, cerr := range sagaErr.CompensationErrors {
			messages = append(messages, cerr.Error())
		}
		r.record(ctx, NewEntry(ctx, sagaID, r.workflow, StatusFailed, failedStep, messages))

		outcome := OutcomeCompensated
		if !sagaErr.Compensated() {
			outcome = OutcomeFailed
		}
		r.recordOutcome(ctx, outcome, start)
		return sagaErr
	}

	r.record(ctx, NewEntry(ctx, sagaID, r.workflow, StatusCompleted, "", nil))
	r.recordOutcome(ctx, OutcomeCompleted, start)
	telemetry.SetOK(span)
	log.Debug("Saga completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// runStage returns the steps that succeeded, in declaration order, and the
// first failure.
func (r *Runner) runStage(ctx context.Context, sagaID string, stage Stage) ([]Step, string, error) {
	if len(stage.Steps) == 1 {
		step := stage.Steps[0]
		if err := r.execute(ctx, sagaID, step); err != nil {
			return nil, step.Name, err
		}
		return []Step{step}, "", nil
	}

	succeeded := make([]bool, len(stage.Steps))
	var (
		failOnce   sync.Once
		failedStep string
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, step := range stage.Steps {
		g.Go(func() error {
			if err := r.execute(gctx, sagaID, step); err != nil {
				failOnce.Do(func() { failedStep = step.Name })
				return err
			}
			succeeded[i] = true
			return nil
		})
	}
	err := g.Wait()

	done := make([]Step, 0, len(stage.Steps))
	for i, step := range stage.Steps {
		if succeeded[i] {
			done = append(done, step)
		}
	}
	if err != nil {
		return done, failedStep, err
	}
	return done, "", nil
}

func (r *Runner) execute(ctx context.Context, sagaID string, step Step) error {
	ctx, span := telemetry.StartSpan(ctx, "saga.step."+step.Name,
		telemetry.WithAttribute(telemetry.SpanAttrSagaID, sagaID),
		telemetry.WithAttribute(telemetry.SpanAttrSagaStep, step.Name),
	)
	defer span.End()

	if err := step.Execute(ctx); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	r.record(ctx, NewEntry(ctx, sagaID, r.workflow, StatusStepDone, step.Name, nil))
	return nil
}

// compensate undoes steps in reverse order. Undo runs on a context detached
// from the caller's cancellation.
func (r *Runner) compensate(ctx context.Context, sagaID string, steps []Step, log *zap.Logger) []error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if step.Compensate == nil {
			continue
		}
		cctx, span := telemetry.StartSpan(ctx, "saga.compensate."+step.Name,
			telemetry.WithAttribute(telemetry.SpanAttrSagaID, sagaID),
			telemetry.WithAttribute(telemetry.SpanAttrSagaStep, step.Name),
		)
		err := step.Compensate(cctx)
		if err != nil {
			telemetry.RecordError(span, err)
			log.Error("CRITICAL: compensation failed, manual repair required",
				zap.String("step", step.Name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("compensation of %s failed: %w", step.Name, err))
		} else {
			log.Info("Compensated saga step", zap.String("step", step.Name))
		}
		span.End()
		if r.metrics != nil {
			r.metrics.RecordCompensation(ctx, r.workflow, step.Name, err)
		}
	}
	return errs
}

func (r *Runner) record(ctx context.Context, entry Entry) {
	if err := r.journal.Append(ctx, entry); err != nil {
		r.logger.Warn("Failed to append saga journal entry",
			zap.String("saga_id", entry.SagaID),
			zap.String("status", string(entry.Status)),
			zap.Error(err),
		)
	}
}

func (r *Runner) recordOutcome(ctx context.Context, outcome string, start time.Time) {
	if r.metrics != nil {
		r.metrics.RecordSaga(ctx, r.workflow, outcome, time.Since(start))
	}
}

// FailedStep returns the step name of a saga error in err's chain, or ""
func FailedStep(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
