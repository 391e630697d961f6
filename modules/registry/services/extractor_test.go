package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/sheet"
)

func TestExtractRecords_HeaderBelowMetadata(t *testing.T) {
	grid := sheet.Grid{
		{"Residents export", ""},
		{"generated", "2024-01-01"},
		{"", ""},
		{"code", "lastname", "street", "standing_order", "home_phone"},
		{"1234.0", "Cohen", "  Main St ", "1.0", "050-1234567"},
		{"", "", "", "", ""},
		{"x", "Levi", "", "maybe", "501234567.0"},
	}
	idx, found := sheet.LocateHeader(grid, services.ResidentHeaderTokens, 20)
	require.True(t, found)
	require.Equal(t, 3, idx)

	var lines []int
	var records []resident.Record
	for line, rec := range services.ExtractRecords(sheet.NewTable(grid, idx)) {
		lines = append(lines, line)
		records = append(records, rec)
	}
	require.Equal(t, []int{5, 7}, lines)
	require.Len(t, records, 2)

	require.Equal(t, int64(1234), *records[0].Code)
	require.Equal(t, "Cohen", records[0].Lastname)
	require.Equal(t, "Main St", records[0].Streetname)
	require.Equal(t, 1, records[0].StandingOrder)
	require.Equal(t, "050-1234567", records[0].Phone)
	require.Equal(t, "501234567", records[1].Phone)
	require.Empty(t, records[0].Email)

	require.Nil(t, records[1].Code)
	require.Equal(t, "Levi", records[1].Lastname)
	require.Equal(t, 0, records[1].StandingOrder)
}

func TestExtractRecords_IsRestartable(t *testing.T) {
	grid := sheet.Grid{{"lastname"}, {"a"}, {"b"}}
	seq := services.ExtractRecords(sheet.NewTable(grid, 0))

	collect := func() []string {
		var out []string
		for _, rec := range seq {
			out = append(out, rec.Lastname)
		}
		return out
	}
	require.Equal(t, []string{"a", "b"}, collect())
	require.Equal(t, []string{"a", "b"}, collect())
}
