package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
	"github.com/iota-uz/mishloach/pkg/sheet"
)

// Synonyms lists the source columns that may carry a canonical field, highest priority first.
type Synonyms struct {
	Field   string
	Columns []string
}

// ResidentSynonyms is the resident column table. Column order inside each entry decides
// which column wins when a sheet carries several of them.
var ResidentSynonyms = []Synonyms{
	{Field: resident.FieldCode, Columns: []string{"code", "order_code", "קוד"}},
	{Field: resident.FieldLastname, Columns: []string{"lastname", "last_name", "שם משפחה", "משפחה"}},
	{Field: resident.FieldFatherName, Columns: []string{"father_name", "father_first_name", "שם אבא"}},
	{Field: resident.FieldMotherName, Columns: []string{"mother_name", "mother_first_name", "שם אמא"}},
	{Field: resident.FieldStreetname, Columns: []string{"streetname", "street", "רחוב", "כתובת"}},
	{Field: resident.FieldBuildingNumber, Columns: []string{"buildingnumber", "building_number", "מס בית", "מספר בית", "בנין"}},
	{Field: resident.FieldEntrance, Columns: []string{"entrance", "כניסה"}},
	{Field: resident.FieldApartmentNumber, Columns: []string{"apartmentnumber", "apartment_number", "דירה"}},
	{Field: resident.FieldPhone, Columns: []string{"phone", "home_phone", "טלפון"}},
	{Field: resident.FieldMobile, Columns: []string{"mobile", "נייד", "נייד 1"}},
	{Field: resident.FieldMobile2, Columns: []string{"mobile2", "נייד 2"}},
	{Field: resident.FieldEmail, Columns: []string{"email", `דוא"ל`, "מייל"}},
	{Field: resident.FieldStandingOrder, Columns: []string{"standing_order", "הוראת קבע"}},
}

// ResidentHeaderTokens mark the header row of a resident sheet.
var ResidentHeaderTokens = sheet.HeaderTokens{
	Contains: []string{"משפחה", "last_name", "lastname", "order_code"},
	Exact:    []string{"code", "קוד"},
}

// FieldNormalizer resolves canonical fields against the working columns of one table.
type FieldNormalizer struct {
	candidates map[string][]int
}

func NewFieldNormalizer(columns []string, table []Synonyms) *FieldNormalizer {
	positions := make(map[string][]int, len(columns))
	for i, c := range columns {
		key := foldColumn(c)
		positions[key] = append(positions[key], i)
	}
	candidates := make(map[string][]int, len(table))
	for _, entry := range table {
		var idx []int
		for _, syn := range entry.Columns {
			idx = append(idx, positions[foldColumn(syn)]...)
		}
		candidates[entry.Field] = idx
	}
	return &FieldNormalizer{candidates: candidates}
}

// Resolve returns the first non-empty value among the synonym columns of field.
// The second result is false when no such column exists or all of them are empty.
func (n *FieldNormalizer) Resolve(row sheet.Row, field string) (string, bool) {
	for _, i := range n.candidates[field] {
		if v := row.Cell(i); v != "" {
			return v, true
		}
	}
	return "", false
}

// Has reports whether any synonym column of field exists in the table.
func (n *FieldNormalizer) Has(field string) bool {
	return len(n.candidates[field]) > 0
}

func foldColumn(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CleanIntStr renders a float-looking identifier ("1234.0") as a digit string ("1234").
// Text that does not parse as a number is returned trimmed and otherwise untouched.
func CleanIntStr(raw string) string {
	s := strings.TrimSpace(raw)
	f, ok := parseFloat(s)
	if !ok {
		return s
	}
	t := math.Trunc(f)
	if t == 0 {
		return "0"
	}
	return strconv.FormatFloat(t, 'f', 0, 64)
}

// SafeInt truncates a float-looking flag to an integer; anything unparseable is 0.
func SafeInt(raw string) int {
	f, ok := parseFloat(strings.TrimSpace(raw))
	if !ok {
		return 0
	}
	t := math.Trunc(f)
	if t > math.MaxInt32 || t < math.MinInt32 {
		return 0
	}
	return int(t)
}

// ParseCode cleans an identifier cell and keeps its digits. Anything without a positive
// integer value is absent.
func ParseCode(raw string) *int64 {
	cleaned := CleanIntStr(raw)
	var b strings.Builder
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	code, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil || code <= 0 {
		return nil
	}
	return &code
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
