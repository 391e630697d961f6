package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/pkg/composables"
)

// ResetService wipes the registry back to its bootstrap state.
type ResetService struct {
	persons  person.Repository
	streets  street.Repository
	orders   outerorder.Repository
	outcomes ingestion.Repository
	fallback street.Street
	tx       Transactor
}

func NewResetService(
	persons person.Repository,
	streets street.Repository,
	orders outerorder.Repository,
	outcomes ingestion.Repository,
	fallback street.Street,
	tx Transactor,
) *ResetService {
	return &ResetService{
		persons:  persons,
		streets:  streets,
		orders:   orders,
		outcomes: outcomes,
		fallback: fallback,
		tx:       tx,
	}
}

// Reset deletes persons, outer orders and both ingestion logs, restarts the person
// sequence and re-seeds the fallback street. Streets are kept. It holds the sequence
// lock so no upload can reserve an identifier halfway through.
func (s *ResetService) Reset(ctx context.Context) error {
	logger := composables.UseLogger(ctx)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.persons.LockSequence(ctx); err != nil {
			return err
		}
		steps := []struct {
			name string
			run  func(context.Context) error
		}{
			{"outcomes", s.outcomes.DeleteAll},
			{"missing streets", s.streets.DeleteMissing},
			{"outer orders", s.orders.DeleteAll},
			{"persons", s.persons.DeleteAll},
		}
		for _, step := range steps {
			if err := step.run(ctx); err != nil {
				return errors.Wrapf(err, "reset %s", step.name)
			}
		}
		return s.streets.EnsureFallback(ctx, s.fallback)
	})
	if err != nil {
		logger.WithError(err).Error("registry reset failed")
		return err
	}
	logger.Info("registry reset")
	return nil
}

// Bootstrap makes sure the fallback street exists.
func (s *ResetService) Bootstrap(ctx context.Context) error {
	return s.streets.EnsureFallback(ctx, s.fallback)
}
