package services

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/iota-uz/mishloach/pkg/sheet"
)

var (
	// ErrFileUnreadable aborts an upload: no parser or encoding accepted the file.
	ErrFileUnreadable = sheet.ErrUnreadable
	// ErrHeaderNotFound is never returned to callers; the pipeline falls back to the first row.
	ErrHeaderNotFound = errors.New("no header row found")

	ErrEmptyUpload = errors.New("upload is empty")
	ErrUnknownView = errors.New("unknown report view")
)

// RowConversionError is a failure confined to one source row.
type RowConversionError struct {
	Row int
	Err error
}

func (e *RowConversionError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowConversionError) Unwrap() error {
	return e.Err
}
