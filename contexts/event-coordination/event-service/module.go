package eventservice

import (
	"log/slog"
	"time"

	httpadapter "meetfix/contexts/event-coordination/event-service/adapters/http"
	"meetfix/contexts/event-coordination/event-service/adapters/ics"
	"meetfix/contexts/event-coordination/event-service/adapters/memory"
	"meetfix/contexts/event-coordination/event-service/application/commands"
	"meetfix/contexts/event-coordination/event-service/application/queries"
	"meetfix/contexts/event-coordination/event-service/application/workers"
	"meetfix/contexts/event-coordination/event-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Queries     queries.EventQueries
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Events         ports.EventRepository
	Votes          ports.VoteRepository
	Tally          ports.TallyReader
	Timelines      ports.TimelineRepository
	Groups         ports.GroupDirectory
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxRepository
	Publisher      ports.EventPublisher
	Calendar       ports.CalendarRenderer
	Metrics        ports.Metrics
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	OutboxBatch    int
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	calendar := deps.Calendar
	if calendar == nil {
		calendar = ics.Renderer{}
	}
	eventQueries := queries.EventQueries{
		Events:    deps.Events,
		Votes:     deps.Votes,
		Tally:     deps.Tally,
		Timelines: deps.Timelines,
		Groups:    deps.Groups,
		Calendar:  calendar,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Events: commands.EventUseCase{
				Events:         deps.Events,
				Timelines:      deps.Timelines,
				Groups:         deps.Groups,
				Idempotency:    deps.Idempotency,
				Clock:          deps.Clock,
				IDGen:          deps.IDGen,
				IdempotencyTTL: deps.IdempotencyTTL,
				Logger:         deps.Logger,
			},
			Votes: commands.VoteUseCase{
				Events:  deps.Events,
				Votes:   deps.Votes,
				Tally:   deps.Tally,
				Groups:  deps.Groups,
				Clock:   deps.Clock,
				IDGen:   deps.IDGen,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			Lifecycle: commands.LifecycleUseCase{
				Events:  deps.Events,
				Clock:   deps.Clock,
				IDGen:   deps.IDGen,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			Queries: eventQueries,
			Logger:  deps.Logger,
		},
		Queries: eventQueries,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Metrics:   deps.Metrics,
			BatchSize: deps.OutboxBatch,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to one memory store. When groups is nil
// the store's own membership projection answers membership checks.
func NewInMemoryModule(groups ports.GroupDirectory, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	if groups == nil {
		groups = store
	}
	module := NewModule(Dependencies{
		Events:         store,
		Votes:          store,
		Tally:          store,
		Timelines:      store,
		Groups:         groups,
		Idempotency:    store,
		Outbox:         store,
		Publisher:      publisher,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
