package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "registry-data",
		Short:         "Resident registry import, migration and reset tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("log-level", "warn", "Log level written to stderr: debug, info, warn, error")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newImportCmd(kindResidents))
	cmd.AddCommand(newImportCmd(kindOrders))
	cmd.AddCommand(newResetCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
