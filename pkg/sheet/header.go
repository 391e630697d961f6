package sheet

import "strings"

// HeaderTokens mark a row as the header row. Contains tokens may appear anywhere in
// the joined row text; Exact tokens must equal a whole trimmed cell. Both compare
// case-insensitively.
type HeaderTokens struct {
	Contains []string
	Exact    []string
}

// LocateHeader scans the first window rows and returns the index of the first row
// carrying a header token. When nothing matches it returns 0 and false: the caller
// degrades to treating the first row as the header.
func LocateHeader(grid Grid, tokens HeaderTokens, window int) (int, bool) {
	if window <= 0 || window > len(grid) {
		window = len(grid)
	}
	contains := foldAll(tokens.Contains)
	exact := make(map[string]struct{}, len(tokens.Exact))
	for _, tok := range foldAll(tokens.Exact) {
		exact[tok] = struct{}{}
	}

	for i := 0; i < window; i++ {
		if rowMatches(grid[i], contains, exact) {
			return i, true
		}
	}
	return 0, false
}

func rowMatches(row []string, contains []string, exact map[string]struct{}) bool {
	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = fold(cell)
		if _, ok := exact[cells[i]]; ok {
			return true
		}
	}
	text := strings.Join(cells, " ")
	for _, tok := range contains {
		if tok != "" && strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fold(s)
	}
	return out
}
