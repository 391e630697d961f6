package street

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("street not found")

type Street struct {
	Code int64
	Name string
}

// MissingStreet records a row whose street could not be resolved.
type MissingStreet struct {
	BatchID   uuid.UUID
	Row       int
	Name      string
	CreatedAt time.Time
}

// NormalizeName is the identity streets are deduplicated by.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

type Repository interface {
	// FindByName matches the trimmed name exactly (case-sensitive).
	FindByName(ctx context.Context, name string) (Street, error)
	// Create stores name under the next free code, skipping the fallback code.
	// When another writer created the same name first, that street is returned.
	Create(ctx context.Context, name string) (Street, error)
	EnsureFallback(ctx context.Context, fallback Street) error
	List(ctx context.Context) ([]Street, error)
	LogMissing(ctx context.Context, m MissingStreet) error
	ListMissing(ctx context.Context, limit int) ([]MissingStreet, error)
	// DeleteMissing clears the missing-streets log. Streets themselves are kept.
	DeleteMissing(ctx context.Context) error
}
