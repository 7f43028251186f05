package notificationservice

import (
	"log/slog"
	"time"

	httpadapter "meetfix/contexts/event-coordination/notification-service/adapters/http"
	"meetfix/contexts/event-coordination/notification-service/adapters/memory"
	"meetfix/contexts/event-coordination/notification-service/application"
	"meetfix/contexts/event-coordination/notification-service/application/workers"
	"meetfix/contexts/event-coordination/notification-service/ports"
)

type Module struct {
	Service              application.Service
	Handler              httpadapter.Handler
	PackUpConsumer       workers.PackUpConsumer
	CancellationConsumer workers.CancellationConsumer
	Store                *memory.Store
}

type Dependencies struct {
	Repository     ports.Repository
	Dedup          ports.EventDedupStore
	Recipients     ports.RecipientDirectory
	Subscriber     ports.EventSubscriber
	Metrics        ports.Metrics
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	DedupTTL       time.Duration
	DisableWorkers bool
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	disabled := deps.DisableWorkers || deps.Subscriber == nil
	return Module{
		Service: service,
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		PackUpConsumer: workers.PackUpConsumer{
			Subscriber:    deps.Subscriber,
			Dedup:         deps.Dedup,
			Notifications: deps.Repository,
			Recipients:    deps.Recipients,
			Clock:         deps.Clock,
			IDGen:         deps.IDGen,
			Metrics:       deps.Metrics,
			DedupTTL:      deps.DedupTTL,
			Disabled:      disabled || deps.Recipients == nil,
			Logger:        deps.Logger,
		},
		CancellationConsumer: workers.CancellationConsumer{
			Subscriber:    deps.Subscriber,
			Dedup:         deps.Dedup,
			Notifications: deps.Repository,
			Clock:         deps.Clock,
			DedupTTL:      deps.DedupTTL,
			Disabled:      disabled,
			Logger:        deps.Logger,
		},
	}
}

func NewInMemoryModule(recipients ports.RecipientDirectory, subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Dedup:      store,
		Recipients: recipients,
		Subscriber: subscriber,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
