package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
)

const defaultMissingStreetsLimit = 100

// AuditService reads back the ingestion logs: per-row outcomes and unresolved street names.
type AuditService struct {
	streets  street.Repository
	outcomes ingestion.Repository
}

func NewAuditService(streets street.Repository, outcomes ingestion.Repository) *AuditService {
	return &AuditService{streets: streets, outcomes: outcomes}
}

// MissingStreets returns the newest entries of the missing-streets log first.
func (s *AuditService) MissingStreets(ctx context.Context, limit int) ([]street.MissingStreet, error) {
	if limit <= 0 || limit > 1000 {
		limit = defaultMissingStreetsLimit
	}
	return s.streets.ListMissing(ctx, limit)
}

func (s *AuditService) Outcomes(ctx context.Context, batchID uuid.UUID) ([]ingestion.Outcome, error) {
	return s.outcomes.ListByBatch(ctx, batchID)
}

func (s *AuditService) Streets(ctx context.Context) ([]street.Street, error) {
	return s.streets.List(ctx)
}
