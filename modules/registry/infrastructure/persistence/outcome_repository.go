package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
	"github.com/iota-uz/mishloach/pkg/composables"
)

type OutcomeRepository struct{}

func NewOutcomeRepository() ingestion.Repository {
	return &OutcomeRepository{}
}

func (r *OutcomeRepository) LogOutcome(ctx context.Context, o ingestion.Outcome) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ingestion_outcomes (batch_id, row_number, status, personid, message) VALUES ($1, $2, $3, $4, $5)`,
		o.BatchID, o.Row, string(o.Status), o.PersonID, o.Message,
	); err != nil {
		return errors.Wrap(err, "log row outcome")
	}
	return nil
}

func (r *OutcomeRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]ingestion.Outcome, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT batch_id, row_number, status, personid, message, created_at
		FROM ingestion_outcomes WHERE batch_id = $1 ORDER BY row_number, id`,
		batchID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list outcomes")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ingestion.Outcome, error) {
		var (
			o      ingestion.Outcome
			status string
		)
		err := row.Scan(&o.BatchID, &o.Row, &status, &o.PersonID, &o.Message, &o.CreatedAt)
		o.Status = resident.Status(status)
		return o, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list outcomes")
	}
	return out, nil
}

func (r *OutcomeRepository) DeleteAll(ctx context.Context) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `TRUNCATE TABLE ingestion_outcomes RESTART IDENTITY`); err != nil {
		return errors.Wrap(err, "truncate outcomes")
	}
	return nil
}
