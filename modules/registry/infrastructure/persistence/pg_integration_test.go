//go:build integration

package persistence_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/modules/registry/infrastructure/persistence"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/configuration"
	"github.com/iota-uz/mishloach/pkg/eventbus"
)

var fallback = street.Street{Code: 999, Name: "רחוב כללי"}

func startPostgres(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("mishloach_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})
	require.NoError(t, persistence.Migrate(ctx, pool, logger))

	ctx = composables.WithPool(ctx, pool)
	return composables.WithLogger(ctx, logrus.NewEntry(logger)), pool
}

func TestPostgres_MigrationSeedsFallbackStreet(t *testing.T) {
	ctx, _ := startPostgres(t)
	streets := persistence.NewStreetRepository(fallback.Code)

	got, err := streets.FindByName(ctx, "  "+fallback.Name+" ")
	require.NoError(t, err)
	require.Equal(t, fallback.Code, got.Code)

	created, err := streets.Create(ctx, "Herzl")
	require.NoError(t, err)
	require.Equal(t, int64(1), created.Code)

	again, err := streets.Create(ctx, " Herzl ")
	require.NoError(t, err)
	require.Equal(t, created.Code, again.Code)
}

func TestPostgres_PersonWriteErrors(t *testing.T) {
	ctx, _ := startPostgres(t)
	persons := persistence.NewPersonRepository()

	_, err := persons.Create(ctx, person.New(5, person.Fields{Lastname: "Cohen", StreetCode: &fallback.Code}))
	require.NoError(t, err)

	_, err = persons.Create(ctx, person.New(5, person.Fields{Lastname: "Levi"}))
	require.ErrorIs(t, err, person.ErrIDTaken)

	unknown := int64(4242)
	_, err = persons.Create(ctx, person.New(6, person.Fields{Lastname: "Levi", StreetCode: &unknown}))
	require.ErrorIs(t, err, person.ErrUnknownStreet)

	upserted, err := persons.Upsert(ctx, person.New(5, person.Fields{Lastname: "Cohen-Levi", Phone: "0501112222"}))
	require.NoError(t, err)
	require.Equal(t, "Cohen-Levi", upserted.Lastname())
	require.Equal(t, fallback.Code, *upserted.StreetCode())
}

func TestPostgres_ConcurrentReservationsAreUnique(t *testing.T) {
	ctx, _ := startPostgres(t)
	persons := persistence.NewPersonRepository()
	tx := persistence.NewPgTransactor()
	seq := services.NewSequencer(persons, tx)

	const workers = 8
	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = tx.InTx(ctx, func(ctx context.Context) error {
				id, err := seq.ReserveNext(ctx)
				if err != nil {
					return err
				}
				ids[i] = id
				_, err = persons.Create(ctx, person.New(id, person.Fields{Lastname: "Worker"}))
				return err
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.ElementsMatch(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, ids)
}

func TestPostgres_ConcurrentManualAndAutomaticRowsDoNotDeadlock(t *testing.T) {
	ctx, _ := startPostgres(t)
	persons := persistence.NewPersonRepository()
	streets := persistence.NewStreetRepository(fallback.Code)
	outcomes := persistence.NewOutcomeRepository()
	tx := persistence.NewPgTransactor()
	seq := services.NewSequencer(persons, tx)
	reconciler := services.NewReconciler(persons, streets, outcomes, services.NewStreetResolver(streets, tx), seq, tx)

	// Manual codes 1..4 collide with the ids the automatic rows draw next.
	const batches = 8
	reports := make([]*services.ReconcileReport, batches)
	errs := make([]error, batches)
	var wg sync.WaitGroup
	for i := range batches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := resident.Record{Lastname: "auto"}
			if i%2 == 0 {
				code := int64(i/2 + 1)
				rec = resident.Record{Code: &code, Lastname: "manual"}
			}
			one := func(yield func(int, resident.Record) bool) { yield(2, rec) }
			reports[i], errs[i] = reconciler.Reconcile(ctx, uuid.New(), one)
		}()
	}
	wg.Wait()

	for i := range batches {
		require.NoError(t, errs[i])
		require.Zero(t, reports[i].Failed, "rows: %+v", reports[i].Rows)
	}

	maxID, err := persons.MaxID(ctx)
	require.NoError(t, err)
	next, err := seq.ReserveNext(ctx)
	require.NoError(t, err)
	require.Greater(t, next, maxID)
}

func TestPostgres_IngestAndReset(t *testing.T) {
	ctx, pool := startPostgres(t)
	persons := persistence.NewPersonRepository()
	streets := persistence.NewStreetRepository(fallback.Code)
	orders := persistence.NewOuterOrderRepository()
	outcomes := persistence.NewOutcomeRepository()
	tx := persistence.NewPgTransactor()

	seq := services.NewSequencer(persons, tx)
	reconciler := services.NewReconciler(persons, streets, outcomes, services.NewStreetResolver(streets, tx), seq, tx)
	opts := configuration.IngestionOptions{
		ResidentEncodings:  []string{"utf-8"},
		OrderEncodings:     []string{"utf-8"},
		HeaderScanRows:     20,
		DefaultPackageSize: "סמלי",
		FallbackStreetCode: int(fallback.Code),
		FallbackStreetName: fallback.Name,
	}
	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})
	ingestion := services.NewIngestionService(reconciler, services.NewOrderIngestor(orders, tx, "סמלי"), opts, eventbus.NewEventPublisher(logger))

	upload := "code,lastname,streetname,phone\n" +
		"100,Cohen,Herzl,0501234567\n" +
		",Levi,,0527654321\n" +
		",Levi,,0527654321\n"
	report, err := ingestion.IngestResidents(ctx, "residents.csv", []byte(upload))
	require.NoError(t, err)
	require.Equal(t, 2, report.Inserted)
	require.Equal(t, 1, report.Updated)
	require.Equal(t, 1, report.MissingStreets)
	require.Equal(t, int64(101), *report.Rows[1].PersonID)

	logged, err := outcomes.ListByBatch(ctx, report.BatchID)
	require.NoError(t, err)
	require.Len(t, logged, 3)

	orderReport, err := ingestion.IngestOrders(ctx, "orders.csv", []byte("sender_code,invitees\n100,\"101\"\n"))
	require.NoError(t, err)
	require.Equal(t, 1, orderReport.Appended)

	_, err = pool.Exec(ctx, `CREATE TABLE "Order" (id serial PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO "Order" DEFAULT VALUES`)
	require.NoError(t, err)

	reports := services.NewReportService(stdlib.OpenDBFromPool(pool), persons, orders)
	stats, err := reports.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, services.Stats{Persons: 2, Orders: 1, PendingOuterOrders: 1}, stats)

	reset := services.NewResetService(persons, streets, orders, outcomes, fallback, tx)
	require.NoError(t, reset.Reset(ctx))

	stats, err = reports.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, services.Stats{Orders: 1}, stats)

	id, err := seq.ReserveNext(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	kept, err := streets.FindByName(ctx, "Herzl")
	require.NoError(t, err)
	require.NotZero(t, kept.Code)
}
