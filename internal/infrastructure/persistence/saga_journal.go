package persistence

import (
	"context"

	"github.com/marketplace/backend/internal/application/saga"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSagaJournal appends saga transitions to the saga_journal table
type GormSagaJournal struct {
	db *gorm.DB
}

// NewGormSagaJournal creates a new GormSagaJournal
func NewGormSagaJournal(db *gorm.DB) *GormSagaJournal {
	return &GormSagaJournal{db: db}
}

// Append inserts one entry
func (j *GormSagaJournal) Append(ctx context.Context, entry saga.Entry) error {
	return j.db.WithContext(ctx).Create(&models.SagaJournalModel{
		SagaID:   entry.SagaID,
		Workflow: entry.Workflow,
		Status:   string(entry.Status),
		Step:     entry.Step,
		Errors:   entry.Errors,
		TraceID:  entry.TraceID,
		SpanID:   entry.SpanID,
		At:       entry.At,
	}).Error
}

// History returns every entry of a saga in append order
func (j *GormSagaJournal) History(ctx context.Context, sagaID string) ([]saga.Entry, error) {
	var rows []models.SagaJournalModel
	if err := j.db.WithContext(ctx).
		Where("saga_id = ?", sagaID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]saga.Entry, len(rows))
	for i, row := range rows {
		entries[i] = saga.Entry{
			SagaID:   row.SagaID,
			Workflow: row.Workflow,
			Status:   saga.Status(row.Status),
			Step:     row.Step,
			Errors:   row.Errors,
			TraceID:  row.TraceID,
			SpanID:   row.SpanID,
			At:       row.At,
		}
	}
	return entries, nil
}

var _ saga.Journal = (*GormSagaJournal)(nil)
