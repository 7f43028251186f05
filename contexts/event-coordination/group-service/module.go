package groupservice

import (
	"log/slog"
	"time"

	httpadapter "meetfix/contexts/event-coordination/group-service/adapters/http"
	"meetfix/contexts/event-coordination/group-service/adapters/invitecode"
	"meetfix/contexts/event-coordination/group-service/adapters/memory"
	"meetfix/contexts/event-coordination/group-service/application"
	"meetfix/contexts/event-coordination/group-service/application/workers"
	"meetfix/contexts/event-coordination/group-service/ports"
)

type Module struct {
	Service               application.Service
	Handler               httpadapter.Handler
	EventActivityConsumer workers.EventActivityConsumer
	Store                 *memory.Store
}

type Dependencies struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	Dedup          ports.EventDedupStore
	Subscriber     ports.EventSubscriber
	InviteCodes    ports.InviteCodeGenerator
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	DedupTTL       time.Duration
	DisableWorkers bool
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	inviteCodes := deps.InviteCodes
	if inviteCodes == nil {
		inviteCodes = invitecode.Generator{}
	}
	service := application.Service{
		Repo:           deps.Repository,
		Idempotency:    deps.Idempotency,
		InviteCodes:    inviteCodes,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		Logger:         deps.Logger,
		IdempotencyTTL: deps.IdempotencyTTL,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		EventActivityConsumer: workers.EventActivityConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Groups:     deps.Repository,
			Clock:      deps.Clock,
			DedupTTL:   deps.DedupTTL,
			Disabled:   deps.DisableWorkers || deps.Subscriber == nil,
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:     store,
		Idempotency:    store,
		Dedup:          store,
		Subscriber:     subscriber,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
