package cache

import (
	"context"
	"sync"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed keys in process memory, so it
// only deduplicates within one instance. Expired keys are swept periodically.
type InMemoryIdempotencyStore struct {
	now           func() time.Time
	sweepInterval time.Duration

	mu      sync.Mutex
	expires map[string]time.Time

	stop     context.CancelFunc
	stopped  chan struct{}
	stopOnce sync.Once
}

type MemoryStoreOption func(*InMemoryIdempotencyStore)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *InMemoryIdempotencyStore) { s.now = now }
}

func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(s *InMemoryIdempotencyStore) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

func NewInMemoryIdempotencyStore(opts ...MemoryStoreOption) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
		expires:       make(map[string]time.Time),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	go s.sweepLoop(ctx)
	return s
}

func (s *InMemoryIdempotencyStore) live(key string, at time.Time) bool {
	exp, ok := s.expires[key]
	return ok && at.Before(exp)
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.live(key, now) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live(key, s.now()), nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expires, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper; later calls are no-ops
func (s *InMemoryIdempotencyStore) Close() error {
	s.stopOnce.Do(func() {
		s.stop()
		<-s.stopped
	})
	return nil
}

// Len counts stored keys, expired or not
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

func (s *InMemoryIdempotencyStore) sweepLoop(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops expired keys and returns how many it removed
func (s *InMemoryIdempotencyStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key := range s.expires {
		if !s.live(key, now) {
			delete(s.expires, key)
			removed++
		}
	}
	return removed
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
