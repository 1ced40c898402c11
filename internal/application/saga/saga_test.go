package saga

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryJournal struct {
	mu      sync.Mutex
	entries []Entry
}

func (j *memoryJournal) Append(_ context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memoryJournal) statuses() []Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Status, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.Status
	}
	return out
}

type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, s)
}

func (r *recorder) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func step(rec *recorder, name string, fail error) Step {
	return Step{
		Name: name,
		Execute: func(ctx context.Context) error {
			if fail != nil {
				return fail
			}
			rec.add("do:" + name)
			return nil
		},
		Compensate: func(ctx context.Context) error {
			rec.add("undo:" + name)
			return nil
		},
	}
}

func TestRunner_Success(t *testing.T) {
	rec := &recorder{}
	journal := &memoryJournal{}
	r := NewRunner("checkout", WithJournal(journal))

	err := r.Run(context.Background(), "cart-1",
		Sequential(step(rec, "a", nil)),
		Sequential(step(rec, "b", nil)),
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"do:a", "do:b"}, rec.entries())
	assert.Equal(t, []Status{StatusStarted, StatusStepDone, StatusStepDone, StatusCompleted}, journal.statuses())
	assert.Equal(t, "cart-1", journal.entries[0].SagaID)
	assert.Equal(t, "checkout", journal.entries[0].Workflow)
}

func TestRunner_CompensatesInReverseOrder(t *testing.T) {
	rec := &recorder{}
	journal := &memoryJournal{}
	boom := errors.New("boom")
	r := NewRunner("checkout", WithJournal(journal))

	err := r.Run(context.Background(), "cart-1",
		Sequential(step(rec, "a", nil)),
		Sequential(step(rec, "b", nil)),
		Sequential(step(rec, "c", boom)),
		Sequential(step(rec, "d", nil)),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "c", se.Step)
	assert.True(t, se.Compensated())
	assert.Equal(t, "c", FailedStep(err))

	assert.Equal(t, []string{"do:a", "do:b", "undo:b", "undo:a"}, rec.entries())
	statuses := journal.statuses()
	assert.Equal(t, StatusCompensating, statuses[len(statuses)-2])
	assert.Equal(t, StatusFailed, statuses[len(statuses)-1])
}

func TestRunner_ConcurrentStage(t *testing.T) {
	t.Run("runs siblings in parallel", func(t *testing.T) {
		rec := &recorder{}
		started := make(chan struct{}, 2)
		release := make(chan struct{})
		waiting := func(name string) Step {
			return Step{
				Name: name,
				Execute: func(ctx context.Context) error {
					started <- struct{}{}
					<-release
					rec.add("do:" + name)
					return nil
				},
			}
		}
		go func() {
			<-started
			<-started
			close(release)
		}()

		err := NewRunner("checkout").Run(context.Background(), "cart-1",
			Concurrent("parallel", waiting("x"), waiting("y")),
		)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"do:x", "do:y"}, rec.entries())
	})

	t.Run("failure compensates completed siblings and earlier stages", func(t *testing.T) {
		rec := &recorder{}
		boom := errors.New("out of stock")
		slowFail := Step{
			Name: "reserve",
			Execute: func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				return boom
			},
			Compensate: func(ctx context.Context) error {
				rec.add("undo:reserve")
				return nil
			},
		}

		err := NewRunner("checkout").Run(context.Background(), "cart-1",
			Sequential(step(rec, "orders", nil)),
			Concurrent("finalize", slowFail, step(rec, "links", nil)),
			Sequential(step(rec, "events", nil)),
		)

		require.Error(t, err)
		assert.Equal(t, "reserve", FailedStep(err))
		assert.Equal(t, []string{"do:orders", "do:links", "undo:links", "undo:orders"}, rec.entries())
	})
}

func TestRunner_CompensationFailureIsReported(t *testing.T) {
	undoErr := errors.New("cannot undo")
	failingUndo := Step{
		Name:       "a",
		Execute:    func(ctx context.Context) error { return nil },
		Compensate: func(ctx context.Context) error { return undoErr },
	}
	failing := Step{Name: "b", Execute: func(ctx context.Context) error { return errors.New("b failed") }}
	metrics := &countingMetrics{}

	err := NewRunner("checkout", WithMetrics(metrics)).Run(context.Background(), "s", Sequential(failingUndo), Sequential(failing))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.False(t, se.Compensated())
	require.Len(t, se.CompensationErrors, 1)
	assert.ErrorIs(t, se.CompensationErrors[0], undoErr)
	assert.Contains(t, se.Error(), "1 compensation failures")
	assert.Equal(t, []string{OutcomeFailed}, metrics.outcomes)
	assert.Equal(t, 1, metrics.compensationFailures)
}

func TestRunner_CompensatesAfterCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var undoCtxErr error
	first := Step{
		Name:    "a",
		Execute: func(ctx context.Context) error { return nil },
		Compensate: func(ctx context.Context) error {
			undoCtxErr = ctx.Err()
			return nil
		},
	}
	second := Step{Name: "b", Execute: func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	}}

	err := NewRunner("checkout").Run(ctx, "s", Sequential(first), Sequential(second))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, undoCtxErr)
}

type countingMetrics struct {
	outcomes             []string
	compensationFailures int
}

func (m *countingMetrics) RecordSaga(_ context.Context, _ string, outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *countingMetrics) RecordCompensation(_ context.Context, _, _ string, err error) {
	if err != nil {
		m.compensationFailures++
	}
}
