package main

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/mishloach/pkg/configuration"
)

// loadOptions reads the ingestion and database settings without building the
// server configuration, which would open the server log file.
func loadOptions() (configuration.IngestionOptions, configuration.DatabaseOptions, error) {
	if _, err := configuration.LoadEnv([]string{".env", ".env.local"}); err != nil {
		return configuration.IngestionOptions{}, configuration.DatabaseOptions{}, withCode(exitUsage, fmt.Errorf("load env: %w", err))
	}
	ingestion, err := env.ParseAs[configuration.IngestionOptions]()
	if err != nil {
		return configuration.IngestionOptions{}, configuration.DatabaseOptions{}, withCode(exitUsage, fmt.Errorf("parse ingestion env: %w", err))
	}
	if err := ingestion.Validate(); err != nil {
		return configuration.IngestionOptions{}, configuration.DatabaseOptions{}, withCode(exitUsage, err)
	}
	db, err := env.ParseAs[configuration.DatabaseOptions]()
	if err != nil {
		return configuration.IngestionOptions{}, configuration.DatabaseOptions{}, withCode(exitUsage, fmt.Errorf("parse database env: %w", err))
	}
	return ingestion, db, nil
}

func connectDB(ctx context.Context, opts configuration.DatabaseOptions) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, opts.ConnectionString())
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("connect db: %w", err))
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, withCode(exitDB, fmt.Errorf("ping db: %w", err))
	}
	return pool, nil
}
