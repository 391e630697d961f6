package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/services"
)

func TestPersonService_Create(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()
	svc := services.NewPersonService(h.persons, h.sequencer, h.reg)

	manual, err := svc.Create(ctx, &person.CreateDTO{PersonID: ptr(int64(10)), Lastname: " Cohen "})
	require.NoError(t, err)
	require.Equal(t, int64(10), manual.ID())
	require.Equal(t, "Cohen", manual.Lastname())

	auto, err := svc.Create(ctx, &person.CreateDTO{Lastname: "Levi", Phone: "050 123 4567"})
	require.NoError(t, err)
	require.Equal(t, int64(11), auto.ID())
	require.Equal(t, "0501234567", auto.Phone())

	_, err = svc.Create(ctx, &person.CreateDTO{PersonID: ptr(int64(10)), Lastname: "Dup"})
	require.ErrorIs(t, err, person.ErrIDTaken)

	list, total, err := svc.GetPaginated(ctx, &person.FindParams{Q: " lev "})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, int64(11), list[0].ID())
}
