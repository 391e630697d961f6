package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Grid is a raw sheet: rows of cell text in source order, possibly ragged.
type Grid [][]string

var (
	ErrUnreadable      = errors.New("upload could not be decoded or parsed")
	ErrUnknownEncoding = errors.New("unknown encoding")
	errUndefinedByte   = errors.New("byte sequence undefined in encoding")
	errInvalidUTF8     = errors.New("invalid utf-8")
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var spreadsheetSuffixes = []string{".xlsx", ".xlsm"}

// Read turns an uploaded file into a Grid. Spreadsheet-native uploads are read with
// excelize; anything else (or a spreadsheet that fails to open) is parsed as CSV,
// trying each encoding in order until one decodes the whole file.
func Read(name string, data []byte, encodings []string) (Grid, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrUnreadable, "empty upload")
	}

	var attempts []string
	if isSpreadsheet(name, data) {
		grid, err := readXLSX(data)
		if err == nil {
			return grid, nil
		}
		attempts = append(attempts, fmt.Sprintf("xlsx: %v", err))
	}

	for _, enc := range encodings {
		text, err := Decode(data, enc)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", enc, err))
			continue
		}
		grid, err := parseCSV(text)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", enc, err))
			continue
		}
		return grid, nil
	}
	return nil, errors.Wrapf(ErrUnreadable, "tried %s", strings.Join(attempts, "; "))
}

func isSpreadsheet(name string, data []byte) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, suffix := range spreadsheetSuffixes {
		if ext == suffix {
			return true
		}
	}
	return mimetype.Detect(data).Is(xlsxMIME)
}

func readXLSX(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return Grid(rows), nil
}

// Decode converts data from the named encoding to UTF-8. Decoding fails instead of
// substituting replacement characters, so the next candidate encoding can be tried.
func Decode(data []byte, name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		if !utf8.Valid(data) {
			return "", errInvalidUTF8
		}
		return string(data), nil
	case "cp1255", "windows-1255":
		return decodeCharmap(data, charmap.Windows1255)
	case "windows-1252", "cp1252":
		return decodeCharmap(data, charmap.Windows1252)
	case "iso-8859-8":
		return decodeCharmap(data, charmap.ISO8859_8)
	default:
		return "", errors.Wrap(ErrUnknownEncoding, name)
	}
}

func decodeCharmap(data []byte, enc encoding.Encoding) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	// Code pages map their unassigned bytes to U+FFFD or to C1 controls; neither
	// occurs in a genuine upload, so both mean the guess was wrong.
	if bytes.ContainsFunc(out, isUndefinedRune) {
		return "", errUndefinedByte
	}
	return string(out), nil
}

func isUndefinedRune(r rune) bool {
	return r == utf8.RuneError || (r >= 0x80 && r <= 0x9F)
}

func parseCSV(text string) (Grid, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return Grid(rows), nil
}
