package searchapplicationservice

import (
	"log/slog"

	httpadapter "ardhi/contexts/registry-core/search-application-service/adapters/http"
	"ardhi/contexts/registry-core/search-application-service/adapters/memory"
	"ardhi/contexts/registry-core/search-application-service/application/commands"
	"ardhi/contexts/registry-core/search-application-service/application/queries"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	"ardhi/contexts/registry-core/search-application-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Directory  ports.RegistrarDirectory
	Blobs      ports.BlobStore
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createApplication := commands.CreateApplicationUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	recordPayment := commands.RecordPaymentUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	assignRegistrar := commands.AssignRegistrarUseCase{
		Repository: deps.Repository,
		Directory:  deps.Directory,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	adjudicate := commands.AdjudicateApplicationUseCase{
		Repository: deps.Repository,
		Blobs:      deps.Blobs,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Repository: deps.Repository,
		Blobs:      deps.Blobs,
		Logger:     deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateApplication: createApplication,
			RecordPayment:     recordPayment,
			AssignRegistrar:   assignRegistrar,
			Adjudicate:        adjudicate,
			Queries:           queryUseCase,
			Logger:            deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Application, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository: store,
		Directory:  store,
		Blobs:      store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
