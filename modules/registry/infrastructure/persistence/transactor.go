package persistence

import (
	"context"

	"github.com/iota-uz/mishloach/pkg/composables"
)

// PgTransactor runs work in a pgx transaction taken from the pool bound to the context.
type PgTransactor struct{}

func NewPgTransactor() PgTransactor {
	return PgTransactor{}
}

func (PgTransactor) InTx(ctx context.Context, fn func(context.Context) error) error {
	return composables.InTx(ctx, fn)
}
