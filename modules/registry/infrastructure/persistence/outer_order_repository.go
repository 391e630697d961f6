package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
	"github.com/iota-uz/mishloach/pkg/composables"
)

type OuterOrderRepository struct{}

func NewOuterOrderRepository() outerorder.Repository {
	return &OuterOrderRepository{}
}

// Append writes all orders in one round trip.
func (r *OuterOrderRepository) Append(ctx context.Context, orders []outerorder.OuterOrder) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	batch := &pgx.Batch{}
	for _, o := range orders {
		status := o.Status
		if status == "" {
			status = outerorder.StatusWaiting
		}
		batch.Queue(
			`INSERT INTO outer_orders (sender_code, invitees, package_size, origin, sender_phone, status)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.SenderCode, o.Invitees, o.PackageSize, o.Origin, o.SenderPhone, status,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range orders {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, errors.Wrap(err, "append outer order")
		}
	}
	if err := br.Close(); err != nil {
		return 0, errors.Wrap(err, "append outer orders")
	}
	return len(orders), nil
}

func (r *OuterOrderRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM outer_orders WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count outer orders")
	}
	return n, nil
}

func (r *OuterOrderRepository) DeleteAll(ctx context.Context) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `TRUNCATE TABLE outer_orders RESTART IDENTITY`); err != nil {
		return errors.Wrap(err, "truncate outer orders")
	}
	return nil
}
