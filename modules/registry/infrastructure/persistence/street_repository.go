package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/pkg/composables"
)

const streetCreateLockKey int64 = 0x6d73_7374

const createStreetQuery = `WITH next AS (
		SELECT COALESCE(MAX(streetcode) FILTER (WHERE streetcode <> $2), 0) + 1 AS code FROM streets
	)
	INSERT INTO streets (streetcode, streetname)
	SELECT CASE WHEN code = $2 THEN code + 1 ELSE code END, $1 FROM next
	ON CONFLICT ((btrim(streetname))) DO NOTHING
	RETURNING streetcode, streetname`

type StreetRepository struct {
	fallbackCode int64
}

// NewStreetRepository returns a repository that never hands out fallbackCode to a new street.
func NewStreetRepository(fallbackCode int64) street.Repository {
	return &StreetRepository{fallbackCode: fallbackCode}
}

func (r *StreetRepository) FindByName(ctx context.Context, name string) (street.Street, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return street.Street{}, err
	}
	var s street.Street
	err = tx.QueryRow(ctx,
		`SELECT streetcode, streetname FROM streets WHERE btrim(streetname) = $1`,
		street.NormalizeName(name),
	).Scan(&s.Code, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return street.Street{}, street.ErrNotFound
		}
		return street.Street{}, errors.Wrap(err, "find street")
	}
	return s, nil
}

func (r *StreetRepository) Create(ctx context.Context, name string) (street.Street, error) {
	name = street.NormalizeName(name)
	if name == "" {
		return street.Street{}, errors.New("street name is empty")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return street.Street{}, err
	}
	if _, ok := tx.(pgx.Tx); ok {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, streetCreateLockKey); err != nil {
			return street.Street{}, errors.Wrap(err, "lock streets")
		}
	}
	var s street.Street
	err = tx.QueryRow(ctx, createStreetQuery, name, r.fallbackCode).Scan(&s.Code, &s.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.FindByName(ctx, name)
	}
	if err != nil {
		return street.Street{}, errors.Wrap(err, "create street")
	}
	return s, nil
}

func (r *StreetRepository) EnsureFallback(ctx context.Context, fallback street.Street) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO streets (streetcode, streetname) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		fallback.Code, street.NormalizeName(fallback.Name),
	); err != nil {
		return errors.Wrap(err, "ensure fallback street")
	}
	return nil
}

func (r *StreetRepository) List(ctx context.Context) ([]street.Street, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT streetcode, streetname FROM streets ORDER BY streetcode`)
	if err != nil {
		return nil, errors.Wrap(err, "list streets")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (street.Street, error) {
		var s street.Street
		err := row.Scan(&s.Code, &s.Name)
		return s, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list streets")
	}
	return out, nil
}

func (r *StreetRepository) LogMissing(ctx context.Context, m street.MissingStreet) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO missing_streets_log (batch_id, row_number, streetname) VALUES ($1, $2, $3)`,
		m.BatchID, m.Row, m.Name,
	); err != nil {
		return errors.Wrap(err, "log missing street")
	}
	return nil
}

func (r *StreetRepository) ListMissing(ctx context.Context, limit int) ([]street.MissingStreet, error) {
	if limit <= 0 {
		limit = 100
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT batch_id, row_number, streetname, created_at FROM missing_streets_log ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list missing streets")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (street.MissingStreet, error) {
		var m street.MissingStreet
		err := row.Scan(&m.BatchID, &m.Row, &m.Name, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list missing streets")
	}
	return out, nil
}

func (r *StreetRepository) DeleteMissing(ctx context.Context) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM missing_streets_log`); err != nil {
		return errors.Wrap(err, "clear missing streets")
	}
	return nil
}
