package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string        `env:"SERVICE_NAME,default=meetfix"`
	HTTPPort     string        `env:"HTTP_PORT,default=8080"`
	PostgresDSN  string        `env:"POSTGRES_DSN"`
	NATSURL      string        `env:"NATS_URL"`
	NATSStream   string        `env:"NATS_STREAM,default=MEETFIX_EVENTS"`
	OTLPEndpoint string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	CORSOrigins  []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RateLimit    int           `env:"RATE_LIMIT_PER_MINUTE,default=100"`
	LogLevel     string        `env:"LOG_LEVEL,default=info"`
	ShutdownWait time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL,default=168h"`
	DedupTTL       time.Duration `env:"EVENT_DEDUP_TTL,default=168h"`
	PollInterval   time.Duration `env:"WORKER_POLL_INTERVAL,default=2s"`
	OutboxBatch    int           `env:"OUTBOX_BATCH_SIZE,default=100"`

	EnableGroupActivityConsumer bool `env:"ENABLE_GROUP_ACTIVITY_CONSUMER,default=true"`
	EnableBringlistCleanup      bool `env:"ENABLE_BRINGLIST_CLEANUP_CONSUMER,default=true"`
	EnableReminderScheduling    bool `env:"ENABLE_REMINDER_CONSUMERS,default=true"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return Process(ctx, envconfig.OsLookuper())
}

// Process resolves Config from the given lookuper; tests pass a map lookuper.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPPort) == "" {
		errs = append(errs, errors.New("HTTP_PORT must not be empty"))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if c.OutboxBatch <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("WORKER_POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.HTTPPort), ":")
	return ":" + port
}

// UsesPostgres reports whether repositories should be backed by Postgres
// rather than the in-memory stores.
func (c Config) UsesPostgres() bool {
	return strings.TrimSpace(c.PostgresDSN) != ""
}
