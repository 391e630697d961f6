package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/sheet"
)

func TestSniffColumns_ExactBeforeSubstring(t *testing.T) {
	cols := []string{"Guest_List_2", "code", "Sender_Code_Old", "sender_code"}
	require.Equal(t, []int{3, 2, 1}, services.SniffColumns(cols, services.SenderKeywords))
	require.Equal(t, []int{0}, services.SniffColumns(cols, services.InviteesKeywords))
	require.Empty(t, services.SniffColumns(cols, services.PhoneKeywords))
}

func TestOrderIngestor_Ingest(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()
	ingestor := services.NewOrderIngestor(h.reg.OuterOrders(), h.reg, "סמלי")

	grid := sheet.Grid{
		{"קוד מזמין", "מוזמנים", "נייד", "package_size"},
		{"5678.0", "12;14;19", "501234567.0", ""},
		{"", "", "0521111111", "large"},
		{"", "30", "", "large"},
		{"ABC", "", "", ""},
	}
	report, err := ingestor.Ingest(ctx, sheet.NewTable(grid, 0), outerorder.OriginUpload)
	require.NoError(t, err)
	require.Equal(t, 3, report.Appended)
	require.Equal(t, 1, report.Skipped)

	orders := h.reg.Orders()
	require.Len(t, orders, 3)

	require.Equal(t, "5678", orders[0].SenderCode)
	require.Equal(t, "12;14;19", orders[0].Invitees)
	require.Equal(t, "סמלי", orders[0].PackageSize)
	require.Equal(t, outerorder.OriginUpload, orders[0].Origin)
	require.Equal(t, outerorder.StatusWaiting, orders[0].Status)
	require.NotNil(t, orders[0].SenderPhone)
	require.Equal(t, "0501234567", *orders[0].SenderPhone)

	require.Empty(t, orders[1].SenderCode)
	require.Equal(t, "large", orders[1].PackageSize)
	require.Nil(t, orders[1].SenderPhone)

	require.Equal(t, "ABC", orders[2].SenderCode)

	pending, err := h.reg.OuterOrders().CountByStatus(ctx, outerorder.StatusWaiting)
	require.NoError(t, err)
	require.Equal(t, int64(3), pending)
}
