package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
)

func TestSequencer_ReserveNextResyncsAfterManualInsert(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()

	first, err := h.sequencer.ReserveNext(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), first)
	_, err = h.persons.Create(ctx, person.New(first, person.Fields{Lastname: "auto"}))
	require.NoError(t, err)

	_, err = h.persons.Create(ctx, person.New(500, person.Fields{Lastname: "manual"}))
	require.NoError(t, err)
	require.NoError(t, h.sequencer.ReserveManual(ctx, 500))
	require.Equal(t, int64(500), h.reg.Sequence())

	next, err := h.sequencer.ReserveNext(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(501), next)
}

func TestSequencer_ReserveManualWithoutInsertIsHonoured(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()

	require.NoError(t, h.sequencer.ReserveManual(ctx, 500))

	next, err := h.sequencer.ReserveNext(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(501), next)
}

func TestSequencer_ConsecutiveReservationsAdvance(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()

	first, err := h.sequencer.ReserveNext(ctx)
	require.NoError(t, err)
	second, err := h.sequencer.ReserveNext(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), first)
	require.Equal(t, int64(2), second)
}

func TestSequencer_RolledBackReservationIsReleased(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()

	failed := errors.New("row failed")
	err := h.reg.InTx(ctx, func(ctx context.Context) error {
		_, err := h.sequencer.ReserveNext(ctx)
		require.NoError(t, err)
		return failed
	})
	require.ErrorIs(t, err, failed)
	require.Zero(t, h.reg.Sequence())

	next, err := h.sequencer.ReserveNext(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), next)
}

func TestSequencer_ReserveNextSeesRowsWrittenBehindItsBack(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()

	// A person inserted without going through ReserveManual must still be skipped.
	_, err := h.persons.Create(ctx, person.New(42, person.Fields{Lastname: "imported"}))
	require.NoError(t, err)

	next, err := h.sequencer.ReserveNext(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(43), next)
}

func TestSequencer_ReserveManualRejectsNonPositive(t *testing.T) {
	h := newHarness(t)
	require.Error(t, h.sequencer.ReserveManual(testContext(), 0))
}

func TestSequencer_ConcurrentReservationsNeverCollide(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- h.reg.InTx(ctx, func(ctx context.Context) error {
				id, err := h.sequencer.ReserveNext(ctx)
				if err != nil {
					return err
				}
				_, err = h.persons.Create(ctx, person.New(id, person.Fields{Lastname: "auto"}))
				return err
			})
		}()
		go func(manual int64) {
			defer wg.Done()
			errs <- h.reg.InTx(ctx, func(ctx context.Context) error {
				if _, err := h.persons.Upsert(ctx, person.New(manual, person.Fields{Lastname: "manual"})); err != nil {
					return err
				}
				return h.sequencer.ReserveManual(ctx, manual)
			})
		}(int64(1000 + i*100))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := h.persons.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(workers*2), count)

	maxID, err := h.persons.MaxID(ctx)
	require.NoError(t, err)
	next, err := h.sequencer.ReserveNext(ctx)
	require.NoError(t, err)
	require.Greater(t, next, maxID)
}
