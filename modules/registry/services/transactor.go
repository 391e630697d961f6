package services

import "context"

// Transactor runs fn atomically. Nested calls join the outer unit of work.
type Transactor interface {
	InTx(ctx context.Context, fn func(context.Context) error) error
}
