package services

import (
	"context"
	"iter"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/pkg/composables"
)

// RowResult is the terminal state of one source row.
type RowResult struct {
	Row      int             `json:"row"`
	Status   resident.Status `json:"status"`
	PersonID *int64          `json:"person_id,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ReconcileReport summarizes one reconciled batch.
type ReconcileReport struct {
	BatchID        uuid.UUID   `json:"batch_id"`
	Inserted       int         `json:"inserted"`
	Updated        int         `json:"updated"`
	Failed         int         `json:"failed"`
	MissingStreets int         `json:"missing_streets"`
	Rows           []RowResult `json:"rows"`
}

type Reconciler struct {
	persons   person.Repository
	streets   street.Repository
	outcomes  ingestion.Repository
	resolver  *StreetResolver
	sequencer *Sequencer
	tx        Transactor
}

func NewReconciler(
	persons person.Repository,
	streets street.Repository,
	outcomes ingestion.Repository,
	resolver *StreetResolver,
	sequencer *Sequencer,
	tx Transactor,
) *Reconciler {
	return &Reconciler{
		persons:   persons,
		streets:   streets,
		outcomes:  outcomes,
		resolver:  resolver,
		sequencer: sequencer,
		tx:        tx,
	}
}

type lineRecord struct {
	line int
	rec  resident.Record
}

// Reconcile matches every record against the registry in input order and inserts or
// updates a person for it. Each row runs in its own transaction; a failing row is
// recorded as failed and the batch moves on. Only street resolution failures abort.
func (r *Reconciler) Reconcile(ctx context.Context, batchID uuid.UUID, records iter.Seq2[int, resident.Record]) (*ReconcileReport, error) {
	var (
		batch []lineRecord
		names []string
	)
	for line, rec := range records {
		batch = append(batch, lineRecord{line: line, rec: rec})
		names = append(names, rec.Streetname)
	}

	streetIdx, err := r.resolver.Resolve(ctx, names)
	if err != nil {
		return nil, errors.Wrap(err, "resolve streets")
	}

	report := &ReconcileReport{BatchID: batchID, Rows: make([]RowResult, 0, len(batch))}
	logger := composables.UseLogger(ctx).WithField("batch_id", batchID)

	for _, item := range batch {
		rowLogger := logger.WithField("row", item.line)
		code := streetIdx.Lookup(item.rec.Streetname)
		if code == nil {
			report.MissingStreets++
			missing := street.MissingStreet{BatchID: batchID, Row: item.line, Name: street.NormalizeName(item.rec.Streetname)}
			if err := r.streets.LogMissing(ctx, missing); err != nil {
				rowLogger.WithError(err).Warn("failed to log missing street")
			}
		}

		var (
			status resident.Status
			id     int64
		)
		err := r.tx.InTx(ctx, func(ctx context.Context) error {
			var err error
			status, id, err = r.reconcileOne(ctx, item.rec, code)
			return err
		})

		result := RowResult{Row: item.line, Status: status}
		if err != nil {
			rowErr := &RowConversionError{Row: item.line, Err: err}
			result.Status = resident.StatusFailed
			result.Error = rowErr.Error()
			rowLogger.WithError(err).Warn("row failed")
		} else {
			result.PersonID = &id
			rowLogger.WithFields(logrus.Fields{"person_id": id, "status": status}).Debug("row reconciled")
		}

		switch result.Status {
		case resident.StatusInserted:
			report.Inserted++
		case resident.StatusUpdated:
			report.Updated++
		default:
			report.Failed++
		}
		recordRow(result.Status)
		report.Rows = append(report.Rows, result)

		outcome := ingestion.Outcome{
			BatchID:   batchID,
			Row:       result.Row,
			Status:    result.Status,
			PersonID:  result.PersonID,
			Message:   result.Error,
			CreatedAt: time.Now(),
		}
		if err := r.outcomes.LogOutcome(ctx, outcome); err != nil {
			rowLogger.WithError(err).Warn("failed to log row outcome")
		}
	}
	return report, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, rec resident.Record, streetCode *int64) (resident.Status, int64, error) {
	existing, err := r.match(ctx, rec)
	if err != nil {
		return "", 0, err
	}
	if !existing.IsZero() {
		updated, err := r.persons.Update(ctx, existing.ID(), patchFor(rec, streetCode))
		if err != nil {
			return "", 0, err
		}
		return resident.StatusUpdated, updated.ID(), nil
	}

	fields := fieldsFor(rec, streetCode)
	if rec.Code != nil {
		if err := r.sequencer.Lock(ctx); err != nil {
			return "", 0, err
		}
		created, err := r.persons.Upsert(ctx, person.New(*rec.Code, fields))
		if err != nil {
			return "", 0, err
		}
		if err := r.sequencer.ReserveManual(ctx, created.ID()); err != nil {
			return "", 0, err
		}
		return resident.StatusInserted, created.ID(), nil
	}

	id, err := r.sequencer.ReserveNext(ctx)
	if err != nil {
		return "", 0, err
	}
	created, err := r.persons.Create(ctx, person.New(id, fields))
	if err != nil {
		return "", 0, err
	}
	return resident.StatusInserted, created.ID(), nil
}

// match looks a record up by code, then by phone. A zero Person means no match.
func (r *Reconciler) match(ctx context.Context, rec resident.Record) (person.Person, error) {
	if rec.Code != nil {
		p, err := r.persons.GetByID(ctx, *rec.Code)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, person.ErrNotFound) {
			return person.Person{}, err
		}
	}
	if person.NormalizePhone(rec.Phone) == "" {
		return person.Person{}, nil
	}
	p, err := r.persons.FindByPhone(ctx, rec.Phone)
	if errors.Is(err, person.ErrNotFound) {
		return person.Person{}, nil
	}
	return p, err
}

func patchFor(rec resident.Record, streetCode *int64) person.Patch {
	patch := person.Patch{StreetCode: streetCode}
	if rec.Lastname != "" {
		lastname := rec.Lastname
		patch.Lastname = &lastname
	}
	if rec.Email != "" {
		email := rec.Email
		patch.Email = &email
	}
	standingOrder := rec.StandingOrder
	patch.StandingOrder = &standingOrder
	return patch
}

func fieldsFor(rec resident.Record, streetCode *int64) person.Fields {
	return person.Fields{
		Lastname:        rec.Lastname,
		FatherName:      rec.FatherName,
		MotherName:      rec.MotherName,
		StreetCode:      streetCode,
		BuildingNumber:  rec.BuildingNumber,
		Entrance:        rec.Entrance,
		ApartmentNumber: rec.ApartmentNumber,
		Phone:           rec.Phone,
		Mobile:          rec.Mobile,
		Mobile2:         rec.Mobile2,
		Email:           rec.Email,
		StandingOrder:   rec.StandingOrder,
	}
}
