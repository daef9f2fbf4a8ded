package identityservice

import (
	"log/slog"
	"time"

	"ardhi/contexts/identity-access/identity-service/adapters/auth"
	httpadapter "ardhi/contexts/identity-access/identity-service/adapters/http"
	"ardhi/contexts/identity-access/identity-service/adapters/memory"
	"ardhi/contexts/identity-access/identity-service/application"
	"ardhi/contexts/identity-access/identity-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Hasher     ports.PasswordHasher
	Tokens     ports.TokenIssuer
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Hasher: deps.Hasher,
		Tokens: deps.Tokens,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule wires the service against the in-memory store with a
// fixed signing secret. Intended for tests and local runs only.
func NewInMemoryModule(tokenSecret string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Hasher:     auth.BcryptHasher{},
		Tokens:     auth.NewJWTIssuer(tokenSecret, 24*time.Hour),
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
