package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
)

// Sequencer hands out person identifiers. Every automatic reservation re-reads both
// the registry maximum and the persisted sequence under the sequence lock, so neither
// a manual id inserted in between nor an earlier reservation can be handed out again.
type Sequencer struct {
	persons person.Repository
	tx      Transactor
}

func NewSequencer(persons person.Repository, tx Transactor) *Sequencer {
	return &Sequencer{persons: persons, tx: tx}
}

// ReserveNext returns max(max(personid), sequence)+1 and moves the persisted sequence
// to it. The caller should insert the person inside the same transaction.
func (s *Sequencer) ReserveNext(ctx context.Context) (int64, error) {
	var next int64
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.persons.LockSequence(ctx); err != nil {
			return err
		}
		maxID, err := s.persons.MaxID(ctx)
		if err != nil {
			return err
		}
		consumed, err := s.persons.SequenceValue(ctx)
		if err != nil {
			return err
		}
		next = max(maxID, consumed) + 1
		return s.persons.AdvanceSequence(ctx, next)
	})
	if err != nil {
		return 0, errors.Wrap(err, "reserve next person id")
	}
	return next, nil
}

// Lock takes the sequence lock for the rest of the surrounding transaction. It must be
// taken before inserting under an explicit id, never after.
func (s *Sequencer) Lock(ctx context.Context) error {
	return errors.Wrap(s.persons.LockSequence(ctx), "lock person sequence")
}

// ReserveManual records id as consumed; later automatic values will exceed it.
// Callers inserting under an explicit id should hold Lock before the insert.
func (s *Sequencer) ReserveManual(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.Errorf("manual person id must be positive, got %d", id)
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.persons.LockSequence(ctx); err != nil {
			return err
		}
		return s.persons.AdvanceSequence(ctx, id)
	})
	if err != nil {
		return errors.Wrapf(err, "reserve person id %d", id)
	}
	return nil
}
