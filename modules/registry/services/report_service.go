package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/lib/pq"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
)

const (
	reportPageLimit = 100
	logPageLimit    = 20
)

// ReportViews maps every readable view to the columns its search term is matched against.
var ReportViews = map[string][]string{
	"v_accounts_summary":          {"sender_name"},
	"v_families_balance":          {"lastname"},
	"v_orders_details":            {"sender_name", "getter_name"},
	"v_packages_per_building":     {"streetname"},
	"v_outer_distribution_status": nil,
}

type ReportTable struct {
	View    string     `json:"view"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type Stats struct {
	Persons            int64 `json:"persons"`
	Orders             int64 `json:"orders"`
	PendingOuterOrders int64 `json:"pending_outer_orders"`
}

// ReportService reads the reporting views. The views are maintained outside this module.
type ReportService struct {
	db      *sql.DB
	persons person.Repository
	orders  outerorder.Repository
}

func NewReportService(db *sql.DB, persons person.Repository, orders outerorder.Repository) *ReportService {
	return &ReportService{db: db, persons: persons, orders: orders}
}

func viewQuery(view, search string, limited bool) (string, []any, error) {
	columns, ok := ReportViews[view]
	if !ok {
		return "", nil, errors.Wrap(ErrUnknownView, view)
	}
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(pq.QuoteIdentifier(view))

	search = strings.TrimSpace(search)
	if search != "" && len(columns) > 0 {
		conds := make([]string, len(columns))
		for i, c := range columns {
			conds[i] = pq.QuoteIdentifier(c) + " LIKE $1"
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " OR "))
		return b.String(), []any{"%" + search + "%"}, nil
	}
	if limited {
		fmt.Fprintf(&b, " LIMIT %d", reportPageLimit)
	}
	return b.String(), nil, nil
}

// Query reads view. Without a search term at most one page of rows is returned.
func (s *ReportService) Query(ctx context.Context, view, search string) (*ReportTable, error) {
	query, args, err := viewQuery(view, search, true)
	if err != nil {
		return nil, err
	}
	return s.read(ctx, view, query, args)
}

// Export reads every row of view.
func (s *ReportService) Export(ctx context.Context, view string) (*ReportTable, error) {
	query, args, err := viewQuery(view, "", false)
	if err != nil {
		return nil, err
	}
	return s.read(ctx, view, query, args)
}

// OuterOrderErrors lists the newest entries of the distribution error log.
func (s *ReportService) OuterOrderErrors(ctx context.Context, limit int) (*ReportTable, error) {
	return s.readLog(ctx, "outerapporder_error_log", "id", limit)
}

// PersonArchive lists the newest archived persons.
func (s *ReportService) PersonArchive(ctx context.Context, limit int) (*ReportTable, error) {
	return s.readLog(ctx, "person_archive", "created_at", limit)
}

func (s *ReportService) readLog(ctx context.Context, table, orderBy string, limit int) (*ReportTable, error) {
	if limit <= 0 {
		limit = logPageLimit
	}
	limit = min(limit, reportPageLimit)
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC LIMIT %d",
		pq.QuoteIdentifier(table), pq.QuoteIdentifier(orderBy), limit)
	return s.read(ctx, table, query, nil)
}

func (s *ReportService) read(ctx context.Context, view, query string, args []any) (*ReportTable, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", view)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read columns")
	}
	table := &ReportTable{View: view, Columns: columns, Rows: [][]string{}}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(err, "scan %s", view)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatCell(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", view)
	}
	return table, nil
}

func formatCell(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(typed)
	case time.Time:
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}

func (s *ReportService) Stats(ctx context.Context) (Stats, error) {
	persons, err := s.persons.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	var orders int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM "Order"`).Scan(&orders); err != nil {
		return Stats{}, errors.Wrap(err, "count orders")
	}
	pending, err := s.orders.CountByStatus(ctx, outerorder.StatusWaiting)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Persons: persons, Orders: orders, PendingOuterOrders: pending}, nil
}

func WriteCSV(w io.Writer, t *ReportTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes t as a single-sheet workbook named after the view.
func WriteXLSX(w io.Writer, t *ReportTable) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheetName := t.View
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
