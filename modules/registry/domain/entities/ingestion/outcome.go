package ingestion

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
)

const (
	KindResidents = "residents"
	KindOrders    = "orders"
)

// Outcome is the audit entry written for every reconciled row.
type Outcome struct {
	BatchID   uuid.UUID
	Row       int
	Status    resident.Status
	PersonID  *int64
	Message   string
	CreatedAt time.Time
}

type Repository interface {
	LogOutcome(ctx context.Context, o Outcome) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]Outcome, error)
	DeleteAll(ctx context.Context) error
}

// BatchCompletedEvent is published once per finished upload.
type BatchCompletedEvent struct {
	BatchID  uuid.UUID
	Kind     string
	FileName string
	Inserted int
	Updated  int
	Failed   int
	Appended int
	Duration time.Duration
}
