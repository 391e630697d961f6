package main

import (
	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/modules/registry/infrastructure/persistence"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/configuration"
	"github.com/iota-uz/mishloach/pkg/eventbus"
)

// backend is the registry the pipeline writes to: Postgres, or memory for dry runs.
type backend struct {
	persons  person.Repository
	streets  street.Repository
	orders   outerorder.Repository
	outcomes ingestion.Repository
	tx       services.Transactor
}

func fallbackStreet(opts configuration.IngestionOptions) street.Street {
	return street.Street{Code: int64(opts.FallbackStreetCode), Name: opts.FallbackStreetName}
}

func pgBackend(opts configuration.IngestionOptions) backend {
	return backend{
		persons:  persistence.NewPersonRepository(),
		streets:  persistence.NewStreetRepository(fallbackStreet(opts).Code),
		orders:   persistence.NewOuterOrderRepository(),
		outcomes: persistence.NewOutcomeRepository(),
		tx:       persistence.NewPgTransactor(),
	}
}

func memoryBackend(opts configuration.IngestionOptions) backend {
	reg := persistence.NewInmemRegistry(fallbackStreet(opts))
	return backend{
		persons:  reg.Persons(),
		streets:  reg.Streets(),
		orders:   reg.OuterOrders(),
		outcomes: reg.Outcomes(),
		tx:       reg,
	}
}

func (b backend) ingestionService(opts configuration.IngestionOptions, bus eventbus.EventBus) *services.IngestionService {
	sequencer := services.NewSequencer(b.persons, b.tx)
	reconciler := services.NewReconciler(
		b.persons, b.streets, b.outcomes,
		services.NewStreetResolver(b.streets, b.tx),
		sequencer, b.tx,
	)
	return services.NewIngestionService(
		reconciler,
		services.NewOrderIngestor(b.orders, b.tx, opts.DefaultPackageSize),
		opts,
		bus,
	)
}

func (b backend) resetService(opts configuration.IngestionOptions) *services.ResetService {
	return services.NewResetService(b.persons, b.streets, b.orders, b.outcomes, fallbackStreet(opts), b.tx)
}
