// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	bringlistservice "meetfix/contexts/event-coordination/bringlist-service"
	bringlistmemory "meetfix/contexts/event-coordination/bringlist-service/adapters/memory"
	bringlistpostgres "meetfix/contexts/event-coordination/bringlist-service/adapters/postgres"
	eventservice "meetfix/contexts/event-coordination/event-service"
	eventmemory "meetfix/contexts/event-coordination/event-service/adapters/memory"
	eventpostgres "meetfix/contexts/event-coordination/event-service/adapters/postgres"
	groupservice "meetfix/contexts/event-coordination/group-service"
	groupmemory "meetfix/contexts/event-coordination/group-service/adapters/memory"
	grouppostgres "meetfix/contexts/event-coordination/group-service/adapters/postgres"
	notificationservice "meetfix/contexts/event-coordination/notification-service"
	notificationmemory "meetfix/contexts/event-coordination/notification-service/adapters/memory"
	notificationpostgres "meetfix/contexts/event-coordination/notification-service/adapters/postgres"
	contractsv1 "meetfix/contracts/gen/events/v1"
	"meetfix/internal/app/directory"
	"meetfix/internal/platform/config"
	"meetfix/internal/platform/db"
	"meetfix/internal/platform/httpserver"
	"meetfix/internal/platform/messaging"
	"meetfix/internal/platform/metrics"
)

// EventBus is what the relay publishes to and the consumers subscribe on.
type EventBus interface {
	Publish(ctx context.Context, topic string, event contractsv1.Envelope) error
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, contractsv1.Envelope) error,
	) error
	Close() error
}

type Services struct {
	Groups        groupservice.Module
	Events        eventservice.Module
	Bringlist     bringlistservice.Module
	Notifications notificationservice.Module
}

// Runtime owns every long-lived resource of one process.
type Runtime struct {
	Config   config.Config
	Logger   *slog.Logger
	Services Services

	postgres *db.Postgres
	bus      EventBus
}

type APIApp struct {
	runtime *Runtime
	server  *httpserver.Server
	// embedded runs the workers in-process when state lives in memory.
	embedded bool
}

type WorkerApp struct {
	runtime *Runtime
}

// NewLogger builds the JSON slog logger every module logs through.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// Build connects storage and the event bus and wires the four services.
// reg may be nil to register collectors on the default registry.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	collectors, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	bus, err := newBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	runtime := &Runtime{Config: cfg, Logger: logger, bus: bus}
	if cfg.UsesPostgres() {
		pg, err := db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		runtime.postgres = pg
		runtime.Services = buildPostgresServices(cfg, pg, bus, collectors, logger)
	} else {
		runtime.Services = buildMemoryServices(cfg, bus, collectors, logger)
	}
	applyConsumerToggles(cfg, &runtime.Services)

	logger.Info("runtime built",
		"event", "bootstrap_runtime_built",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"storage", runtime.storageName(),
		"bus", busName(cfg),
	)
	return runtime, nil
}

func newBus(cfg config.Config, logger *slog.Logger) (EventBus, error) {
	if strings.TrimSpace(cfg.NATSURL) == "" {
		return messaging.NewInProcess(logger), nil
	}
	bus, err := messaging.NewNATS(cfg.NATSURL, cfg.NATSStream, logger)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

func buildMemoryServices(cfg config.Config, bus EventBus, collectors *metrics.Metrics, logger *slog.Logger) Services {
	groupStore := groupmemory.NewStore()
	groups := groupservice.NewModule(groupservice.Dependencies{
		Repository:     groupStore,
		Idempotency:    groupStore,
		Dedup:          groupStore,
		Subscriber:     bus,
		Clock:          groupStore,
		IDGenerator:    groupStore,
		IdempotencyTTL: cfg.IdempotencyTTL,
		DedupTTL:       cfg.DedupTTL,
		Logger:         logger,
	})
	groups.Store = groupStore

	eventStore := eventmemory.NewStore()
	events := eventservice.NewModule(eventservice.Dependencies{
		Events:         eventStore,
		Votes:          eventStore,
		Tally:          eventStore,
		Timelines:      eventStore,
		Groups:         directory.Groups{Membership: groups.Service},
		Idempotency:    eventStore,
		Outbox:         eventStore,
		Publisher:      bus,
		Metrics:        collectors,
		Clock:          eventStore,
		IDGen:          eventStore,
		IdempotencyTTL: cfg.IdempotencyTTL,
		OutboxBatch:    cfg.OutboxBatch,
		Logger:         logger,
	})
	events.Store = eventStore

	bringStore := bringlistmemory.NewStore()
	bringlist := bringlistservice.NewModule(bringlistservice.Dependencies{
		Items:      bringStore,
		Claims:     bringStore,
		Events:     directory.Events{Queries: events.Queries, Membership: groups.Service},
		Dedup:      bringStore,
		Subscriber: bus,
		Metrics:    collectors,
		Clock:      bringStore,
		IDGen:      bringStore,
		DedupTTL:   cfg.DedupTTL,
		Logger:     logger,
	})
	bringlist.Store = bringStore

	notificationStore := notificationmemory.NewStore()
	notifications := notificationservice.NewModule(notificationservice.Dependencies{
		Repository: notificationStore,
		Dedup:      notificationStore,
		Recipients: directory.Recipients{
			Membership: groups.Service,
			Events:     events.Queries,
			Bringlist:  bringlist.Queries,
		},
		Subscriber: bus,
		Metrics:    collectors,
		Clock:      notificationStore,
		IDGen:      notificationStore,
		DedupTTL:   cfg.DedupTTL,
		Logger:     logger,
	})
	notifications.Store = notificationStore

	return Services{
		Groups:        groups,
		Events:        events,
		Bringlist:     bringlist,
		Notifications: notifications,
	}
}

func buildPostgresServices(
	cfg config.Config,
	pg *db.Postgres,
	bus EventBus,
	collectors *metrics.Metrics,
	logger *slog.Logger,
) Services {
	clock := eventpostgres.SystemClock{}
	ids := eventpostgres.UUIDGenerator{}

	groupRepo := grouppostgres.NewRepository(pg.DB, logger)
	groups := groupservice.NewModule(groupservice.Dependencies{
		Repository:     groupRepo,
		Idempotency:    groupRepo,
		Dedup:          groupRepo,
		Subscriber:     bus,
		Clock:          clock,
		IDGenerator:    grouppostgres.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		DedupTTL:       cfg.DedupTTL,
		Logger:         logger,
	})

	eventRepo := eventpostgres.NewRepository(pg.DB, logger)
	events := eventservice.NewModule(eventservice.Dependencies{
		Events:         eventRepo,
		Votes:          eventRepo,
		Tally:          eventpostgres.NewTallyReader(pg.Pool, logger),
		Timelines:      eventRepo,
		Groups:         eventRepo,
		Idempotency:    eventRepo,
		Outbox:         eventRepo,
		Publisher:      bus,
		Metrics:        collectors,
		Clock:          clock,
		IDGen:          ids,
		IdempotencyTTL: cfg.IdempotencyTTL,
		OutboxBatch:    cfg.OutboxBatch,
		Logger:         logger,
	})

	bringRepo := bringlistpostgres.NewRepository(pg.DB, logger)
	bringlist := bringlistservice.NewModule(bringlistservice.Dependencies{
		Items:      bringRepo,
		Claims:     bringRepo,
		Events:     directory.Events{Queries: events.Queries, Membership: groups.Service},
		Dedup:      bringRepo,
		Subscriber: bus,
		Metrics:    collectors,
		Clock:      clock,
		IDGen:      ids,
		DedupTTL:   cfg.DedupTTL,
		Logger:     logger,
	})

	notificationRepo := notificationpostgres.NewRepository(pg.DB, logger)
	notifications := notificationservice.NewModule(notificationservice.Dependencies{
		Repository: notificationRepo,
		Dedup:      notificationRepo,
		Recipients: directory.Recipients{
			Membership: groups.Service,
			Events:     events.Queries,
			Bringlist:  bringlist.Queries,
		},
		Subscriber: bus,
		Metrics:    collectors,
		Clock:      clock,
		IDGen:      ids,
		DedupTTL:   cfg.DedupTTL,
		Logger:     logger,
	})

	return Services{
		Groups:        groups,
		Events:        events,
		Bringlist:     bringlist,
		Notifications: notifications,
	}
}

func applyConsumerToggles(cfg config.Config, services *Services) {
	if !cfg.EnableGroupActivityConsumer {
		services.Groups.EventActivityConsumer.Disabled = true
	}
	if !cfg.EnableBringlistCleanup {
		services.Bringlist.EventCleanupConsumer.Disabled = true
	}
	if !cfg.EnableReminderScheduling {
		services.Notifications.PackUpConsumer.Disabled = true
		services.Notifications.CancellationConsumer.Disabled = true
	}
}

// Ready reports whether the backing database answers.
func (r *Runtime) Ready(ctx context.Context) error {
	if r.postgres == nil {
		return nil
	}
	return r.postgres.Ping(ctx)
}

// RunWorkers subscribes every enabled consumer and then drains the outbox on
// each poll tick until ctx is done.
func (r *Runtime) RunWorkers(ctx context.Context) error {
	starts := []func(context.Context) error{
		r.Services.Groups.EventActivityConsumer.Start,
		r.Services.Bringlist.EventCleanupConsumer.Start,
		r.Services.Notifications.PackUpConsumer.Start,
		r.Services.Notifications.CancellationConsumer.Start,
	}
	for _, start := range starts {
		if err := start(ctx); err != nil {
			return err
		}
	}

	interval := r.Config.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.Logger.Info("worker loop started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", interval.String(),
	)
	for {
		// RunOnce logs its own failures; the next tick retries.
		_ = r.Services.Events.OutboxRelay.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Runtime) Close() error {
	var errs []error
	if r.bus != nil {
		errs = append(errs, r.bus.Close())
	}
	if r.postgres != nil {
		errs = append(errs, r.postgres.Close())
	}
	return errors.Join(errs...)
}

func (r *Runtime) storageName() string {
	if r.postgres != nil {
		return "postgres"
	}
	return "memory"
}

func busName(cfg config.Config) string {
	if strings.TrimSpace(cfg.NATSURL) != "" {
		return "nats"
	}
	return "in-process"
}

// BuildAPI wires the HTTP server. Without Postgres every store is
// process-local, so the workers run inside the API process.
func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	runtime, err := Build(ctx, cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	server := httpserver.New(
		runtime.Services.Groups,
		runtime.Services.Events,
		runtime.Services.Bringlist,
		runtime.Services.Notifications,
		runtime.Logger,
		httpserver.Options{
			Addr:        cfg.Addr(),
			ServiceName: cfg.ServiceName + "-api",
			CORSOrigins: cfg.CORSOrigins,
			RateLimit:   cfg.RateLimit,
			Ready:       runtime.Ready,
		},
	)
	return &APIApp{
		runtime:  runtime,
		server:   server,
		embedded: !cfg.UsesPostgres(),
	}, nil
}

// Run serves HTTP until ctx is done, then shuts the server down within the
// configured grace period.
func (a *APIApp) Run(ctx context.Context) error {
	srv := a.server.HTTPServer()
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.runtime.Logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"addr", srv.Addr,
			"embedded_workers", a.embedded,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		wait := a.runtime.Config.ShutdownWait
		if wait <= 0 {
			wait = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.embedded {
		group.Go(func() error {
			return a.runtime.RunWorkers(groupCtx)
		})
	}
	return group.Wait()
}

func (a *APIApp) Close() error {
	return a.runtime.Close()
}

// BuildWorker wires the relay and consumers. A standalone worker only makes
// sense against shared Postgres state.
func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if !cfg.UsesPostgres() {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	runtime, err := Build(ctx, cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{runtime: runtime}, nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	return w.runtime.RunWorkers(ctx)
}

func (w *WorkerApp) Close() error {
	return w.runtime.Close()
}
