package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/mishloach/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the given env files from the working directory, or from the
// nearest parent directory holding a go.mod when none exist in the working directory.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := existing(envFiles, "")
	if len(existingFiles) == 0 {
		if root := moduleRoot(); root != "" {
			existingFiles = existing(envFiles, root)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

func existing(envFiles []string, dir string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"mishloach_db"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"mishloach"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	UploadRPM int  `env:"RATE_LIMIT_UPLOAD_RPM" envDefault:"30"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.UploadRPM < 0 {
		return fmt.Errorf("rate limit UploadRPM must be non-negative, got %d", r.UploadRPM)
	}
	if r.Enabled && r.UploadRPM == 0 {
		return fmt.Errorf("rate limit UploadRPM must be positive when rate limiting is enabled")
	}
	return nil
}

// IngestionOptions drive the spreadsheet pipelines. The encoding lists are tried in order;
// the first encoding that decodes the whole upload wins.
type IngestionOptions struct {
	ResidentEncodings  []string `env:"RESIDENT_ENCODINGS" envSeparator:"," envDefault:"utf-8,cp1255,windows-1252"`
	OrderEncodings     []string `env:"ORDER_ENCODINGS" envSeparator:"," envDefault:"cp1255,utf-8"`
	HeaderScanRows     int      `env:"HEADER_SCAN_ROWS" envDefault:"20"`
	DefaultPackageSize string   `env:"DEFAULT_PACKAGE_SIZE" envDefault:"סמלי"`
	FallbackStreetCode int      `env:"FALLBACK_STREET_CODE" envDefault:"999"`
	FallbackStreetName string   `env:"FALLBACK_STREET_NAME" envDefault:"רחוב כללי"`
}

var knownEncodings = map[string]struct{}{
	"utf-8":        {},
	"utf8":         {},
	"cp1255":       {},
	"windows-1255": {},
	"windows-1252": {},
	"cp1252":       {},
	"iso-8859-8":   {},
}

func (o *IngestionOptions) Validate() error {
	for _, list := range [][]string{o.ResidentEncodings, o.OrderEncodings} {
		if len(list) == 0 {
			return fmt.Errorf("ingestion encoding list must not be empty")
		}
		for i, enc := range list {
			norm := strings.ToLower(strings.TrimSpace(enc))
			if _, ok := knownEncodings[norm]; !ok {
				return fmt.Errorf("unknown ingestion encoding %q", enc)
			}
			list[i] = norm
		}
	}
	if o.HeaderScanRows <= 0 {
		return fmt.Errorf("HEADER_SCAN_ROWS must be positive, got %d", o.HeaderScanRows)
	}
	if o.FallbackStreetCode <= 0 {
		return fmt.Errorf("FALLBACK_STREET_CODE must be positive, got %d", o.FallbackStreetCode)
	}
	return nil
}

type Configuration struct {
	Database      DatabaseOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions
	Ingestion     IngestionOptions

	ServerPort       int    `env:"PORT" envDefault:"5000"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	MaxUploadSize    int64  `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Header carrying the request id; a random uuidv4 is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.Ingestion.Validate(); err != nil {
		return fmt.Errorf("ingestion configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
