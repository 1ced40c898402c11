package models

import "time"

// SagaJournalModel is one append-only saga transition
type SagaJournalModel struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement"`
	SagaID   string    `gorm:"type:varchar(64);not null;index:idx_saga_journal_saga,priority:1"`
	Workflow string    `gorm:"type:varchar(100);not null"`
	Status   string    `gorm:"type:varchar(20);not null"`
	Step     string    `gorm:"type:varchar(100)"`
	Errors   []string  `gorm:"type:jsonb;serializer:json"`
	TraceID  string    `gorm:"type:varchar(32)"`
	SpanID   string    `gorm:"type:varchar(16)"`
	At       time.Time `gorm:"not null;index:idx_saga_journal_saga,priority:2"`
}

// TableName returns the table name for GORM
func (SagaJournalModel) TableName() string {
	return "saga_journal"
}
