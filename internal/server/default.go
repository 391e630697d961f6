package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/configuration"
	"github.com/iota-uz/mishloach/pkg/httpapi"
	"github.com/iota-uz/mishloach/pkg/middleware"
	"github.com/iota-uz/mishloach/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// UploadRateLimit builds the limiter guarding the upload routes, or nil when disabled.
func UploadRateLimit(conf *configuration.Configuration) mux.MiddlewareFunc {
	if !conf.RateLimit.Enabled {
		return nil
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerPeriod: conf.RateLimit.UploadRPM,
		Period:            time.Minute,
		Store:             middleware.NewMemoryStore(),
	})
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = options.Configuration.RequestIDHeader

	// WithLogger creates the root span for each request
	app.RegisterMiddleware(
		middleware.WithLogger(options.Logger, loggerOpts),
		middleware.TracedMiddleware("database"),
		middleware.ProvidePool(options.Pool),
		middleware.TracedMiddleware("cors"),
		middleware.Cors(options.Configuration.Origin),
	)

	return server.NewHTTPServer(app, NotFound(), MethodNotAllowed()), nil
}

func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteAPIError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteAPIError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
}
