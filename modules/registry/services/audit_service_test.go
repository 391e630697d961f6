package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/resident"
	"github.com/iota-uz/mishloach/modules/registry/services"
)

func TestAuditService_ReadsBackBatchLogs(t *testing.T) {
	h := newHarness(t)
	ctx := testContext()

	upload := "code,lastname,streetname\n" +
		"10,Cohen,Herzl\n" +
		"11,Levi,\n"
	report, err := h.ingestion.IngestResidents(ctx, "residents.csv", []byte(upload))
	require.NoError(t, err)
	require.Equal(t, 2, report.Inserted)

	audit := services.NewAuditService(h.reg.Streets(), h.reg.Outcomes())

	outcomes, err := audit.Outcomes(ctx, report.BatchID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		require.Equal(t, resident.StatusInserted, o.Status)
	}

	missing, err := audit.MissingStreets(ctx, 0)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	require.Equal(t, report.BatchID, missing[0].BatchID)
	require.Equal(t, 3, missing[0].Row)

	streets, err := audit.Streets(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(streets))
	for _, s := range streets {
		names = append(names, s.Name)
	}
	require.ElementsMatch(t, []string{fallbackStreet.Name, "Herzl"}, names)
}
