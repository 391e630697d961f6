package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/pkg/composables"
)

const (
	personColumns = `personid, lastname, father_name, mother_name, streetcode, buildingnumber, entrance,
		apartmentnumber, phone, mobile, mobile2, email, standing_order, created_at, updated_at`
	personSequence = "persons_personid_seq"
	// Key of the transaction-scoped advisory lock guarding identifier reservation.
	personSequenceLockKey int64 = 0x6d73_6571
)

const (
	insertPersonQuery = `INSERT INTO persons (personid, lastname, father_name, mother_name, streetcode, buildingnumber,
		entrance, apartmentnumber, phone, mobile, mobile2, email, standing_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())`

	updatePersonQuery = `UPDATE persons SET
		lastname = COALESCE(NULLIF($2::text, ''), lastname),
		email = COALESCE(NULLIF($3::text, ''), email),
		standing_order = COALESCE($4::integer, standing_order),
		streetcode = COALESCE($5::bigint, streetcode),
		updated_at = now()
		WHERE personid = $1
		RETURNING ` + personColumns

	listPersonsQuery = `SELECT ` + personColumns + ` FROM persons
		WHERE ($1::text = '' OR lastname ILIKE '%' || $1 || '%' OR phone = $1 OR mobile = $1)
		ORDER BY personid
		LIMIT $2 OFFSET $3`

	countFilteredPersonsQuery = `SELECT count(*) FROM persons
		WHERE ($1::text = '' OR lastname ILIKE '%' || $1 || '%' OR phone = $1 OR mobile = $1)`

	sequenceValueQuery = `SELECT CASE WHEN is_called THEN last_value ELSE 0 END FROM ` + personSequence

	advanceSequenceQuery = `SELECT setval('` + personSequence + `', GREATEST($1::bigint, (SELECT last_value FROM ` + personSequence + `)))`
)

type PersonRepository struct{}

func NewPersonRepository() person.Repository {
	return &PersonRepository{}
}

func (r *PersonRepository) GetByID(ctx context.Context, id int64) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	p, err := scanPerson(tx.QueryRow(ctx, `SELECT `+personColumns+` FROM persons WHERE personid = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, errors.Wrap(err, "get person")
	}
	return p, nil
}

func (r *PersonRepository) FindByPhone(ctx context.Context, phone string) (person.Person, error) {
	phone = person.NormalizePhone(phone)
	if phone == "" {
		return person.Person{}, person.ErrNotFound
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	p, err := scanPerson(tx.QueryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE phone = $1 ORDER BY personid LIMIT 1`, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, errors.Wrap(err, "find person by phone")
	}
	return p, nil
}

func (r *PersonRepository) GetPaginated(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	if params == nil {
		params = &person.FindParams{}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(params.Offset, 0)
	q := strings.TrimSpace(params.Q)

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := tx.Query(ctx, listPersonsQuery, q, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list persons")
	}
	defer rows.Close()

	out := make([]person.Person, 0, limit)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan person")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "list persons")
	}

	var total int64
	if err := tx.QueryRow(ctx, countFilteredPersonsQuery, q).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count persons")
	}
	return out, total, nil
}

func (r *PersonRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM persons`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count persons")
	}
	return n, nil
}

func (r *PersonRepository) Create(ctx context.Context, p person.Person) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	if _, err := tx.Exec(ctx, insertPersonQuery, insertArgs(p)...); err != nil {
		return person.Person{}, mapWriteError(err, "create person")
	}
	return r.GetByID(ctx, p.ID())
}

func (r *PersonRepository) Upsert(ctx context.Context, p person.Person) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	query := insertPersonQuery + ` ON CONFLICT (personid) DO UPDATE SET lastname = EXCLUDED.lastname, updated_at = now()`
	if _, err := tx.Exec(ctx, query, insertArgs(p)...); err != nil {
		return person.Person{}, mapWriteError(err, "upsert person")
	}
	return r.GetByID(ctx, p.ID())
}

func (r *PersonRepository) Update(ctx context.Context, id int64, patch person.Patch) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	var lastname, email *string
	if patch.Lastname != nil {
		v := strings.TrimSpace(*patch.Lastname)
		lastname = &v
	}
	if patch.Email != nil {
		v := person.NormalizeEmail(*patch.Email)
		email = &v
	}
	p, err := scanPerson(tx.QueryRow(ctx, updatePersonQuery, id, lastname, email, patch.StandingOrder, patch.StreetCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, mapWriteError(err, "update person")
	}
	return p, nil
}

func (r *PersonRepository) MaxID(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var maxID int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(personid), 0) FROM persons`).Scan(&maxID); err != nil {
		return 0, errors.Wrap(err, "max person id")
	}
	return maxID, nil
}

func (r *PersonRepository) LockSequence(ctx context.Context) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, ok := tx.(pgx.Tx); !ok {
		return errors.New("sequence lock requires a transaction")
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, personSequenceLockKey); err != nil {
		return errors.Wrap(err, "lock person sequence")
	}
	return nil
}

func (r *PersonRepository) SequenceValue(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var v int64
	if err := tx.QueryRow(ctx, sequenceValueQuery).Scan(&v); err != nil {
		return 0, errors.Wrap(err, "read person sequence")
	}
	return v, nil
}

func (r *PersonRepository) AdvanceSequence(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, advanceSequenceQuery, id); err != nil {
		return errors.Wrap(err, "advance person sequence")
	}
	return nil
}

func (r *PersonRepository) DeleteAll(ctx context.Context) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM persons`); err != nil {
		return errors.Wrap(err, "delete persons")
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`ALTER SEQUENCE %s RESTART WITH 1`, personSequence)); err != nil {
		return errors.Wrap(err, "restart person sequence")
	}
	return nil
}

func insertArgs(p person.Person) []any {
	f := p.Fields()
	return []any{
		p.ID(), f.Lastname, f.FatherName, f.MotherName, f.StreetCode, f.BuildingNumber,
		f.Entrance, f.ApartmentNumber, f.Phone, f.Mobile, f.Mobile2, f.Email, f.StandingOrder,
	}
}

func mapWriteError(err error, op string) error {
	switch {
	case isUniqueViolation(err):
		return errors.Wrap(person.ErrIDTaken, op)
	case isForeignKeyViolation(err):
		return errors.Wrap(person.ErrUnknownStreet, op)
	default:
		return errors.Wrap(err, op)
	}
}

func scanPerson(row pgx.Row) (person.Person, error) {
	var (
		id                   int64
		f                    person.Fields
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&id, &f.Lastname, &f.FatherName, &f.MotherName, &f.StreetCode, &f.BuildingNumber, &f.Entrance,
		&f.ApartmentNumber, &f.Phone, &f.Mobile, &f.Mobile2, &f.Email, &f.StandingOrder, &createdAt, &updatedAt,
	); err != nil {
		return person.Person{}, err
	}
	return person.Hydrate(id, f, createdAt, updatedAt), nil
}
