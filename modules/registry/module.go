package registry

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/modules/registry/handlers"
	"github.com/iota-uz/mishloach/modules/registry/infrastructure/persistence"
	"github.com/iota-uz/mishloach/modules/registry/presentation/controllers"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/configuration"
)

type ModuleOptions struct {
	Ingestion     configuration.IngestionOptions
	MaxUploadSize int64
	// UploadRateLimit wraps the upload routes; nil disables it.
	UploadRateLimit mux.MiddlewareFunc
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func FallbackStreet(opts configuration.IngestionOptions) street.Street {
	return street.Street{Code: int64(opts.FallbackStreetCode), Name: opts.FallbackStreetName}
}

func (m *Module) Register(app application.Application) error {
	if app.DB() == nil {
		return errors.New("registry: application has no database pool")
	}
	fallback := FallbackStreet(m.options.Ingestion)

	persons := persistence.NewPersonRepository()
	streets := persistence.NewStreetRepository(fallback.Code)
	orders := persistence.NewOuterOrderRepository()
	outcomes := persistence.NewOutcomeRepository()
	tx := persistence.NewPgTransactor()

	sequencer := services.NewSequencer(persons, tx)
	reconciler := services.NewReconciler(
		persons, streets, outcomes,
		services.NewStreetResolver(streets, tx),
		sequencer, tx,
	)
	db := stdlib.OpenDBFromPool(app.DB())
	app.RegisterServices(
		services.NewIngestionService(
			reconciler,
			services.NewOrderIngestor(orders, tx, m.options.Ingestion.DefaultPackageSize),
			m.options.Ingestion,
			app.EventPublisher(),
		),
		services.NewPersonService(persons, sequencer, tx),
		services.NewAuditService(streets, outcomes),
		services.NewReportService(db, persons, orders),
		services.NewDistributionService(db),
		services.NewResetService(persons, streets, orders, outcomes, fallback, tx),
	)

	app.RegisterControllers(
		controllers.NewUploadController(app, controllers.UploadControllerOptions{
			MaxUploadSize: m.options.MaxUploadSize,
			RateLimit:     m.options.UploadRateLimit,
		}),
		controllers.NewPersonAPIController(app),
		controllers.NewAuditAPIController(app),
		controllers.NewReportController(app),
		controllers.NewResetController(app),
		controllers.NewDistributionController(app),
	)
	handlers.RegisterBatchEventHandlers(app)
	return nil
}

// Bootstrap seeds the fallback street.
func (m *Module) Bootstrap(ctx context.Context, app application.Application) error {
	ctx = composables.WithPool(ctx, app.DB())
	reset := app.Service(services.ResetService{}).(*services.ResetService)
	return reset.Bootstrap(ctx)
}

func (m *Module) Name() string {
	return "registry"
}
