package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OutboxProcessorConfig tunes the relay and cleanup loops
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessor relays stored events to a publisher in the background.
// Each poll drains the outbox batch by batch until a batch comes back short.
// Entries whose payload cannot be decoded are dead-lettered at once.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	target     shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewOutboxProcessor(
	repo shared.OutboxRepository,
	target shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultOutboxProcessorConfig().BatchSize
	}
	return &OutboxProcessor{
		repo:       repo,
		target:     target,
		serializer: serializer,
		config:     config,
		logger:     logger.Named("outbox"),
	}
}

// Start launches the relay loop and, when enabled, the cleanup loop
func (p *OutboxProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.group != nil {
		return errors.New("outbox processor already started")
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)

	p.group.Go(func() error {
		p.every(ctx, p.config.PollInterval, p.drain)
		return nil
	})
	if p.config.CleanupEnabled {
		p.group.Go(func() error {
			p.every(ctx, p.config.CleanupInterval, p.cleanup)
			return nil
		})
	}

	p.logger.Info("Outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop cancels the loops and waits for them until ctx is done
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	group, cancel := p.group, p.cancel
	p.group, p.cancel = nil, nil
	p.mu.Unlock()
	if group == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		_ = group.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("Outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (p *OutboxProcessor) drain(ctx context.Context) {
	for ctx.Err() == nil {
		if p.ProcessBatch(ctx) < p.config.BatchSize {
			return
		}
	}
}

// ProcessBatch relays one batch of pending entries and one of due retries,
// returning how many entries it claimed.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) int {
	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("Failed to load pending outbox entries", zap.Error(err))
		return 0
	}
	n := p.relay(ctx, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("Failed to load retryable outbox entries", zap.Error(err))
		return n
	}
	return n + p.relay(ctx, retryable)
}

func (p *OutboxProcessor) relay(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	// another replica may win some of these
	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("Failed to claim outbox entries", zap.Error(err))
		return 0
	}
	for _, entry := range claimed {
		p.relayOne(ctx, entry)
	}
	return len(claimed)
}

func (p *OutboxProcessor) relayOne(ctx context.Context, entry *shared.OutboxEntry) {
	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		entry.MarkDead(err.Error())
		p.logger.Error("Undecodable outbox entry dead-lettered", entryFields(entry, err)...)
		p.save(ctx, entry)
		return
	}

	if err := p.target.Publish(ctx, event); err != nil {
		entry.MarkFailed(err.Error())
		if entry.IsDead() {
			p.logger.Warn("Outbox entry dead-lettered after retries", entryFields(entry, err)...)
		} else {
			p.logger.Error("Failed to relay outbox entry", entryFields(entry, err)...)
		}
		p.save(ctx, entry)
		return
	}

	entry.MarkSent()
	p.save(ctx, entry)
}

func (p *OutboxProcessor) save(ctx context.Context, entry *shared.OutboxEntry) {
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("Failed to update outbox entry",
			zap.String("event_id", entry.EventID.String()),
			zap.String("status", string(entry.Status)),
			zap.Error(err),
		)
	}
}

func entryFields(entry *shared.OutboxEntry, err error) []zap.Field {
	return []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_id", entry.AggregateID.String()),
		zap.Int("retry_count", entry.RetryCount),
		zap.Error(err),
	}
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("Failed to clean up sent outbox entries", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("Cleaned up sent outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
