package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/mishloach/internal/server"
	"github.com/iota-uz/mishloach/modules"
	"github.com/iota-uz/mishloach/modules/registry"
	"github.com/iota-uz/mishloach/modules/registry/infrastructure/persistence"
	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/configuration"
	"github.com/iota-uz/mishloach/pkg/eventbus"
	"github.com/iota-uz/mishloach/pkg/logging"
	"github.com/iota-uz/mishloach/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	if err := persistence.Migrate(ctx, pool, logger); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	loaded := []application.Module{
		registry.NewModule(&registry.ModuleOptions{
			Ingestion:       conf.Ingestion,
			MaxUploadSize:   conf.MaxUploadSize,
			UploadRateLimit: server.UploadRateLimit(conf),
		}),
	}
	if err := modules.Load(app, loaded...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if err := modules.Bootstrap(ctx, app, loaded...); err != nil {
		log.Fatalf("failed to bootstrap modules: %v", err)
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path, nil))
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Listening on: %s\n", conf.Origin)
		return serverInstance.Start(gctx, conf.SocketAddress)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
