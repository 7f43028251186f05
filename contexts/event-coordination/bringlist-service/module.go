package bringlistservice

import (
	"log/slog"
	"time"

	httpadapter "meetfix/contexts/event-coordination/bringlist-service/adapters/http"
	"meetfix/contexts/event-coordination/bringlist-service/adapters/memory"
	"meetfix/contexts/event-coordination/bringlist-service/application/commands"
	"meetfix/contexts/event-coordination/bringlist-service/application/queries"
	"meetfix/contexts/event-coordination/bringlist-service/application/workers"
	"meetfix/contexts/event-coordination/bringlist-service/ports"
)

type Module struct {
	Handler              httpadapter.Handler
	Queries              queries.ItemQueries
	EventCleanupConsumer workers.EventCleanupConsumer
	Store                *memory.Store
}

type Dependencies struct {
	Items          ports.ItemRepository
	Claims         ports.ClaimRepository
	Events         ports.EventDirectory
	Dedup          ports.EventDedupStore
	Subscriber     ports.EventSubscriber
	Metrics        ports.Metrics
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	DedupTTL       time.Duration
	DisableWorkers bool
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	itemQueries := queries.ItemQueries{
		Items:  deps.Items,
		Claims: deps.Claims,
		Events: deps.Events,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Items: commands.ItemUseCase{
				Items:  deps.Items,
				Events: deps.Events,
				Clock:  deps.Clock,
				IDGen:  deps.IDGen,
				Logger: deps.Logger,
			},
			Claims: commands.ClaimUseCase{
				Items:   deps.Items,
				Claims:  deps.Claims,
				Events:  deps.Events,
				Clock:   deps.Clock,
				IDGen:   deps.IDGen,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			Queries: itemQueries,
			Logger:  deps.Logger,
		},
		Queries: itemQueries,
		EventCleanupConsumer: workers.EventCleanupConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Items:      deps.Items,
			Clock:      deps.Clock,
			DedupTTL:   deps.DedupTTL,
			Disabled:   deps.DisableWorkers || deps.Subscriber == nil,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule backs every port with one memory store. events may be nil,
// in which case the store's own event projection answers lookups.
func NewInMemoryModule(events ports.EventDirectory, subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore()
	if events == nil {
		events = store
	}
	module := NewModule(Dependencies{
		Items:      store,
		Claims:     store,
		Events:     events,
		Dedup:      store,
		Subscriber: subscriber,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
