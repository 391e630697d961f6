package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
	"github.com/iota-uz/mishloach/pkg/sheet"
)

// Keyword lists sniffed against the columns of an order upload, highest priority first.
var (
	SenderKeywords   = []string{"sender_code", "order_code", "code", "קוד", "קוד מזמין"}
	InviteesKeywords = []string{"invitees", "guest_list", "מוזמנים", "רשימה"}
	PhoneKeywords    = []string{"mobile", "phone", "home_phone", "נייד", "טלפון", "נייד 1"}
)

const packageSizeColumn = "package_size"

// OrderReport summarizes one order upload.
type OrderReport struct {
	Appended int `json:"appended"`
	Skipped  int `json:"skipped"`
}

// OrderIngestor appends every usable row of an order sheet as a new outer order.
type OrderIngestor struct {
	orders             outerorder.Repository
	tx                 Transactor
	defaultPackageSize string
}

func NewOrderIngestor(orders outerorder.Repository, tx Transactor, defaultPackageSize string) *OrderIngestor {
	return &OrderIngestor{orders: orders, tx: tx, defaultPackageSize: defaultPackageSize}
}

// SniffColumns returns the indices of columns matching keywords in priority order.
// For each keyword an exact (case-insensitive) column match comes before columns
// merely containing it.
func SniffColumns(columns []string, keywords []string) []int {
	folded := make([]string, len(columns))
	for i, c := range columns {
		folded[i] = foldColumn(c)
	}
	seen := make(map[int]struct{}, len(columns))
	var out []int
	add := func(i int) {
		if _, dup := seen[i]; !dup {
			seen[i] = struct{}{}
			out = append(out, i)
		}
	}
	for _, kw := range keywords {
		kw = foldColumn(kw)
		for i, c := range folded {
			if c == kw {
				add(i)
			}
		}
		for i, c := range folded {
			if c != "" && strings.Contains(c, kw) {
				add(i)
			}
		}
	}
	return out
}

func firstNonEmpty(row sheet.Row, idx []int) string {
	for _, i := range idx {
		if v := row.Cell(i); v != "" {
			return v
		}
	}
	return ""
}

// Ingest appends the orders of table. Rows without a sender and without invitees are skipped.
func (o *OrderIngestor) Ingest(ctx context.Context, table *sheet.Table, origin string) (*OrderReport, error) {
	cols := table.Columns()
	senderIdx := SniffColumns(cols, SenderKeywords)
	inviteesIdx := SniffColumns(cols, InviteesKeywords)
	phoneIdx := SniffColumns(cols, PhoneKeywords)
	var sizeIdx []int
	for i, c := range cols {
		if foldColumn(c) == packageSizeColumn {
			sizeIdx = append(sizeIdx, i)
		}
	}

	report := &OrderReport{}
	var orders []outerorder.OuterOrder
	for _, row := range table.Rows() {
		sender := CleanIntStr(firstNonEmpty(row, senderIdx))
		invitees := firstNonEmpty(row, inviteesIdx)
		if sender == "" && invitees == "" {
			report.Skipped++
			continue
		}
		size := firstNonEmpty(row, sizeIdx)
		if size == "" {
			size = o.defaultPackageSize
		}
		order := outerorder.OuterOrder{
			SenderCode:  sender,
			Invitees:    invitees,
			PackageSize: size,
			Origin:      origin,
			Status:      outerorder.StatusWaiting,
		}
		if phone := person.NormalizePhone(CleanIntStr(firstNonEmpty(row, phoneIdx))); phone != "" {
			order.SenderPhone = &phone
		}
		orders = append(orders, order)
	}

	err := o.tx.InTx(ctx, func(ctx context.Context) error {
		n, err := o.orders.Append(ctx, orders)
		report.Appended = n
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "append outer orders")
	}
	ordersAppended.Add(float64(report.Appended))
	return report, nil
}
