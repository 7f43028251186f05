package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestProcessDefaults(t *testing.T) {
	cfg, err := Process(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if cfg.ServiceName != "meetfix" || cfg.Addr() != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.IdempotencyTTL != 7*24*time.Hour || cfg.PollInterval != 2*time.Second || cfg.OutboxBatch != 100 {
		t.Fatalf("unexpected worker defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.UsesPostgres() {
		t.Fatalf("expected memory mode without a dsn")
	}
	if !cfg.EnableReminderScheduling || !cfg.EnableGroupActivityConsumer || !cfg.EnableBringlistCleanup {
		t.Fatalf("expected consumers enabled by default")
	}
}

func TestProcessOverrides(t *testing.T) {
	cfg, err := Process(context.Background(), envconfig.MapLookuper(map[string]string{
		"HTTP_PORT":                         ":9090",
		"POSTGRES_DSN":                      "postgres://meetfix@localhost/meetfix",
		"CORS_ALLOWED_ORIGINS":              "https://a.example,https://b.example",
		"WORKER_POLL_INTERVAL":              "500ms",
		"ENABLE_REMINDER_CONSUMERS":         "false",
		"ENABLE_BRINGLIST_CLEANUP_CONSUMER": "false",
	}))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if cfg.Addr() != ":9090" || !cfg.UsesPostgres() {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.PollInterval != 500*time.Millisecond {
		t.Fatalf("unexpected parsed values: %+v", cfg)
	}
	if cfg.EnableReminderScheduling || cfg.EnableBringlistCleanup {
		t.Fatalf("expected consumer toggles to be off")
	}
}

func TestProcessRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "zero rate limit", env: map[string]string{"RATE_LIMIT_PER_MINUTE": "0"}},
		{name: "negative batch", env: map[string]string{"OUTBOX_BATCH_SIZE": "-1"}},
		{name: "bad duration", env: map[string]string{"WORKER_POLL_INTERVAL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Process(context.Background(), envconfig.MapLookuper(tt.env)); err == nil {
				t.Fatalf("expected error for %v", tt.env)
			}
		})
	}
}
