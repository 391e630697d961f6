package services_test

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
	"github.com/iota-uz/mishloach/modules/registry/services"
)

func newReportService(t *testing.T) (*services.ReportService, sqlmock.Sqlmock, *harness) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h := newHarness(t)
	return services.NewReportService(db, h.persons, h.reg.OuterOrders()), mock, h
}

func TestReportService_QueryLimitsWithoutSearch(t *testing.T) {
	svc, mock, _ := newReportService(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "v_families_balance" LIMIT 100`)).
		WillReturnRows(sqlmock.NewRows([]string{"lastname", "balance", "updated_at", "note"}).
			AddRow("Cohen", 12.5, at, nil))

	table, err := svc.Query(testContext(), "v_families_balance", "")
	require.NoError(t, err)
	require.Equal(t, []string{"lastname", "balance", "updated_at", "note"}, table.Columns)
	require.Equal(t, [][]string{{"Cohen", "12.5", "2024-03-01T12:00:00Z", ""}}, table.Rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_QuerySearchesViewColumns(t *testing.T) {
	svc, mock, _ := newReportService(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "v_orders_details" WHERE "sender_name" LIKE $1 OR "getter_name" LIKE $1`)).
		WithArgs("%לוי%").
		WillReturnRows(sqlmock.NewRows([]string{"sender_name", "getter_name"}))

	table, err := svc.Query(testContext(), "v_orders_details", " לוי ")
	require.NoError(t, err)
	require.Empty(t, table.Rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_RejectsUnknownView(t *testing.T) {
	svc, mock, _ := newReportService(t)
	_, err := svc.Query(testContext(), `person"; DROP TABLE persons; --`, "")
	require.ErrorIs(t, err, services.ErrUnknownView)
	_, err = svc.Export(testContext(), "persons")
	require.ErrorIs(t, err, services.ErrUnknownView)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_ExportAndWriters(t *testing.T) {
	svc, mock, _ := newReportService(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "v_packages_per_building"`)).
		WillReturnRows(sqlmock.NewRows([]string{"streetname", "packages"}).
			AddRow("הרצל", int64(4)).
			AddRow("Main, St", int64(2)))

	table, err := svc.Export(testContext(), "v_packages_per_building")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	var csvOut bytes.Buffer
	require.NoError(t, services.WriteCSV(&csvOut, table))
	require.Equal(t, "streetname,packages\nהרצל,4\n\"Main, St\",2\n", csvOut.String())

	var xlsxOut bytes.Buffer
	require.NoError(t, services.WriteXLSX(&xlsxOut, table))
	f, err := excelize.OpenReader(&xlsxOut)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("v_packages_per_building")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"streetname", "packages"}, {"הרצל", "4"}, {"Main, St", "2"}}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_Stats(t *testing.T) {
	svc, mock, h := newReportService(t)
	ctx := testContext()
	_, err := h.persons.Create(ctx, person.New(1, person.Fields{Lastname: "A"}))
	require.NoError(t, err)
	_, err = h.reg.OuterOrders().Append(ctx, []outerorder.OuterOrder{
		{SenderCode: "1", PackageSize: "סמלי", Origin: outerorder.OriginUpload},
		{SenderCode: "2", PackageSize: "סמלי", Origin: outerorder.OriginUpload, Status: "distributed"},
	})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "Order"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, services.Stats{Persons: 1, Orders: 4, PendingOuterOrders: 1}, stats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_LogListings(t *testing.T) {
	svc, mock, _ := newReportService(t)
	ctx := testContext()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "outerapporder_error_log" ORDER BY "id" DESC LIMIT 20`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "message"}).AddRow(3, "unknown sender"))
	errs, err := svc.OuterOrderErrors(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"3", "unknown sender"}}, errs.Rows)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "person_archive" ORDER BY "created_at" DESC LIMIT 100`)).
		WillReturnRows(sqlmock.NewRows([]string{"personid", "lastname"}))
	archive, err := svc.PersonArchive(ctx, 5000)
	require.NoError(t, err)
	require.Empty(t, archive.Rows)
	require.NoError(t, mock.ExpectationsWereMet())
}
