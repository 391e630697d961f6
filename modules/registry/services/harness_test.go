package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/modules/registry/infrastructure/persistence"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/configuration"
	"github.com/iota-uz/mishloach/pkg/eventbus"
	"github.com/iota-uz/mishloach/pkg/sheet"
)

var fallbackStreet = street.Street{Code: 999, Name: "רחוב כללי"}

type harness struct {
	reg        *persistence.InmemRegistry
	persons    person.Repository
	sequencer  *services.Sequencer
	reconciler *services.Reconciler
	ingestion  *services.IngestionService
	publisher  eventbus.EventBus
}

func ingestionOptions() configuration.IngestionOptions {
	return configuration.IngestionOptions{
		ResidentEncodings:  []string{"utf-8", "cp1255", "windows-1252"},
		OrderEncodings:     []string{"cp1255", "utf-8"},
		HeaderScanRows:     20,
		DefaultPackageSize: "סמלי",
		FallbackStreetCode: int(fallbackStreet.Code),
		FallbackStreetName: fallbackStreet.Name,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithPersons(t, nil)
}

// newHarnessWithPersons lets a test wrap the person repository, e.g. to inject failures.
func newHarnessWithPersons(t *testing.T, wrap func(person.Repository) person.Repository) *harness {
	t.Helper()
	reg := persistence.NewInmemRegistry(fallbackStreet)
	persons := reg.Persons()
	if wrap != nil {
		persons = wrap(persons)
	}
	seq := services.NewSequencer(persons, reg)
	resolver := services.NewStreetResolver(reg.Streets(), reg)
	reconciler := services.NewReconciler(persons, reg.Streets(), reg.Outcomes(), resolver, seq, reg)
	orders := services.NewOrderIngestor(reg.OuterOrders(), reg, "סמלי")

	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})
	publisher := eventbus.NewEventPublisher(logger)

	return &harness{
		reg:        reg,
		persons:    persons,
		sequencer:  seq,
		reconciler: reconciler,
		ingestion:  services.NewIngestionService(reconciler, orders, ingestionOptions(), publisher),
		publisher:  publisher,
	}
}

func testContext() context.Context {
	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})
	return composables.WithLogger(context.Background(), logrus.NewEntry(logger))
}

func csvTable(t *testing.T, text string) *sheet.Table {
	t.Helper()
	grid, err := sheet.Read("upload.csv", []byte(text), []string{"utf-8"})
	require.NoError(t, err)
	idx, _ := sheet.LocateHeader(grid, services.ResidentHeaderTokens, 20)
	return sheet.NewTable(grid, idx)
}

func ptr[T any](v T) *T { return &v }
