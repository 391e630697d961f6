package sheet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var residentTokens = HeaderTokens{
	Contains: []string{"משפחה", "last_name", "lastname", "order_code"},
	Exact:    []string{"code", "קוד"},
}

func TestLocateHeader_SkipsMetadataRows(t *testing.T) {
	grid := Grid{
		{"Residents export"},
		{"Generated", "2025-03-01"},
		{""},
		{"code", "LastName", "phone"},
		{"12", "Cohen", "0501234567"},
		{"13", "Levi", "0527654321"},
	}

	idx, found := LocateHeader(grid, residentTokens, 20)
	require.True(t, found)
	require.Equal(t, 3, idx)

	table := NewTable(grid, idx)
	require.Equal(t, []string{"code", "LastName", "phone"}, table.Columns())

	var lines []int
	var names []string
	for line, row := range table.Rows() {
		lines = append(lines, line)
		name, _ := row.Get("LastName")
		names = append(names, name)
	}
	require.Equal(t, []int{5, 6}, lines)
	require.Equal(t, []string{"Cohen", "Levi"}, names)
}

func TestLocateHeader_FirstMatchWins(t *testing.T) {
	grid := Grid{
		{"title"},
		{"שם משפחה", "טלפון"},
		{"last_name", "phone"},
	}
	idx, found := LocateHeader(grid, residentTokens, 20)
	require.True(t, found)
	require.Equal(t, 1, idx)
}

func TestLocateHeader_ExactTokenNeedsWholeCell(t *testing.T) {
	grid := Grid{
		{"barcode report"},
		{" CODE ", "name"},
	}
	idx, found := LocateHeader(grid, residentTokens, 20)
	require.True(t, found)
	require.Equal(t, 1, idx)
}

func TestLocateHeader_FallsBackToFirstRow(t *testing.T) {
	grid := Grid{
		{"a", "b"},
		{"1", "2"},
	}
	idx, found := LocateHeader(grid, residentTokens, 20)
	require.False(t, found)
	require.Equal(t, 0, idx)
}

func TestLocateHeader_RespectsWindow(t *testing.T) {
	grid := Grid{{"x"}, {"y"}, {"lastname"}}
	_, found := LocateHeader(grid, residentTokens, 2)
	require.False(t, found)
}

func TestTable_SkipsBlankRowsAndPadsRaggedRows(t *testing.T) {
	grid := Grid{
		{"lastname", "phone", "phone"},
		{"", " "},
		{"Cohen"},
		{"Levi", "", "0527654321"},
	}
	table := NewTable(grid, 0)

	var got []string
	for _, row := range table.Rows() {
		phone, ok := row.Get("phone")
		require.True(t, ok)
		got = append(got, phone)
	}
	require.Equal(t, []string{"", "0527654321"}, got)
}
