package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/iota-uz/mishloach/pkg/composables"
)

func newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every person, outer order and ingestion log entry; streets are kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return withCode(exitUsage, errors.New("reset is destructive; pass --yes to confirm"))
			}
			ctx := cmd.Context()
			logger := newLogger(cmd)
			ingestionOpts, dbOpts, err := loadOptions()
			if err != nil {
				return err
			}
			pool, err := connectDB(ctx, dbOpts)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx = composables.WithLogger(composables.WithPool(ctx, pool), logger.WithField("command", "reset"))
			if err := pgBackend(ingestionOpts).resetService(ingestionOpts).Reset(ctx); err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]any{"reset": true})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
