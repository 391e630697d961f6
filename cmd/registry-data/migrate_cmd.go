package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
	"github.com/iota-uz/mishloach/modules/registry/infrastructure/persistence"
	"github.com/iota-uz/mishloach/pkg/composables"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending registry migrations and seed the fallback street",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger(cmd)
			ingestion, dbOpts, err := loadOptions()
			if err != nil {
				return err
			}
			pool, err := connectDB(ctx, dbOpts)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := persistence.Migrate(ctx, pool, logger); err != nil {
				return withCode(exitDB, err)
			}
			fallback := street.Street{Code: int64(ingestion.FallbackStreetCode), Name: ingestion.FallbackStreetName}
			streets := persistence.NewStreetRepository(fallback.Code)
			if err := streets.EnsureFallback(composables.WithPool(ctx, pool), fallback); err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]any{"migrated": true})
		},
	}
}
