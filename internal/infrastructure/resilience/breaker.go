// Package resilience guards calls to external collaborators with a per-call
// timeout and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned without calling the collaborator while its breaker is open
var ErrCircuitOpen = shared.NewDependencyError("CIRCUIT_OPEN", "Collaborator is temporarily unavailable", nil)

// Settings configures a Guard
type Settings struct {
	Name    string
	Timeout time.Duration
	// MaxFailures is the number of consecutive dependency failures that opens the breaker
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through
	OpenTimeout time.Duration
}

// DefaultSettings returns settings used when config leaves fields unset
func DefaultSettings(name string) Settings {
	return Settings{
		Name:        name,
		Timeout:     10 * time.Second,
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}
}

// Guard runs calls returning T through a circuit breaker, each bounded by a timeout.
// Validation errors and rejections (out of stock, declined) count as
// successes. Only outages, timeouts and unclassified errors move the breaker.
type Guard[T any] struct {
	name    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[T]
}

// NewGuard creates a guard
func NewGuard[T any](s Settings, logger *zap.Logger) *Guard[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultSettings(s.Name)
	if s.Timeout <= 0 {
		s.Timeout = defaults.Timeout
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = defaults.MaxFailures
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = defaults.OpenTimeout
	}

	maxFailures := s.MaxFailures
	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:    s.Name,
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !shared.IsDependencyFailure(err) || shared.IsRejection(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Guard[T]{name: s.Name, timeout: s.Timeout, cb: cb}
}

// Do calls fn with a context bounded by the guard's timeout
func (g *Guard[T]) Do(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	res, err := g.cb.Execute(func() (T, error) {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return fn(cctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, shared.NewDependencyError(ErrCircuitOpen.Code, g.name+" is temporarily unavailable", err)
	}
	return res, err
}

// State returns the breaker state name (closed, half-open, open)
func (g *Guard[T]) State() string {
	return g.cb.State().String()
}
