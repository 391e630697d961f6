package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/mishloach/modules/registry/handlers"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/eventbus"
)

type importKind string

const (
	kindResidents importKind = "residents"
	kindOrders    importKind = "orders"
)

type importOptions struct {
	kind          importKind
	file          string
	dryRun        bool
	failOnRowErrs bool
}

type importResult struct {
	Kind   importKind `json:"kind"`
	File   string     `json:"file"`
	DryRun bool       `json:"dry_run"`
	Report any        `json:"report"`
}

func newImportCmd(kind importKind) *cobra.Command {
	opts := importOptions{kind: kind}
	cmd := &cobra.Command{
		Use:   "import-" + string(kind),
		Short: fmt.Sprintf("Import a %s sheet (csv or xlsx)", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "Sheet to import (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run against an empty in-memory registry instead of the database")
	if kind == kindResidents {
		cmd.Flags().BoolVar(&opts.failOnRowErrs, "fail-on-row-errors", false, "Exit non-zero when any row failed")
	}
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cmd)
	ctx = composables.WithLogger(ctx, logger.WithField("command", "import-"+string(opts.kind)))

	if strings.TrimSpace(opts.file) == "" {
		return withCode(exitUsage, errors.New("--file is required"))
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("read %s: %w", opts.file, err))
	}

	ingestionOpts, dbOpts, err := loadOptions()
	if err != nil {
		return err
	}

	var b backend
	if opts.dryRun {
		b = memoryBackend(ingestionOpts)
	} else {
		pool, err := connectDB(ctx, dbOpts)
		if err != nil {
			return err
		}
		defer pool.Close()
		ctx = composables.WithPool(ctx, pool)
		b = pgBackend(ingestionOpts)
	}

	bus := eventbus.NewEventPublisher(logger)
	bus.Subscribe(handlers.NewBatchEventsHandler(logger).OnBatchCompleted)
	svc := b.ingestionService(ingestionOpts, bus)

	name := filepath.Base(opts.file)
	result := importResult{Kind: opts.kind, File: name, DryRun: opts.dryRun}
	failed := 0
	switch opts.kind {
	case kindResidents:
		report, err := svc.IngestResidents(ctx, name, data)
		if err != nil {
			return withCode(ingestionExitCode(err), err)
		}
		result.Report = report
		failed = report.Failed
	case kindOrders:
		report, err := svc.IngestOrders(ctx, name, data)
		if err != nil {
			return withCode(ingestionExitCode(err), err)
		}
		result.Report = report
	}

	if err := writeJSONLine(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if opts.failOnRowErrs && failed > 0 {
		return withCode(exitRowErrors, fmt.Errorf("%d rows failed", failed))
	}
	return nil
}

func ingestionExitCode(err error) int {
	if errors.Is(err, services.ErrFileUnreadable) || errors.Is(err, services.ErrEmptyUpload) {
		return exitValidation
	}
	return exitDB
}

