package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	identityservice "ardhi/contexts/identity-access/identity-service"
	identityauth "ardhi/contexts/identity-access/identity-service/adapters/auth"
	identitypostgres "ardhi/contexts/identity-access/identity-service/adapters/postgres"
	searchapplicationservice "ardhi/contexts/registry-core/search-application-service"
	registrypostgres "ardhi/contexts/registry-core/search-application-service/adapters/postgres"
	registryworkers "ardhi/contexts/registry-core/search-application-service/application/workers"
	"ardhi/internal/platform/config"
	"ardhi/internal/platform/db"
	"ardhi/internal/platform/httpserver"
	"ardhi/internal/platform/logging"
	"ardhi/internal/platform/messaging"
	"ardhi/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  registryworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(cfg.ServiceName).With("process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	identityRepo := identitypostgres.NewRepository(pg.DB)
	registryRepo := registrypostgres.NewRepository(pg.DB, logger)
	if cfg.AutoMigrate {
		if err := identityRepo.AutoMigrate(); err != nil {
			return nil, err
		}
		if err := registryRepo.AutoMigrate(); err != nil {
			return nil, err
		}
	}

	identityModule := identityservice.NewModule(identityservice.Dependencies{
		Repository: identityRepo,
		Hasher:     identityauth.BcryptHasher{},
		Tokens:     identityauth.NewJWTIssuer(cfg.TokenSecret, cfg.TokenTTL),
		Clock:      identitypostgres.SystemClock{},
		IDGen:      identitypostgres.UUIDGenerator{},
		Logger:     logger,
	})

	registryModule := searchapplicationservice.NewModule(searchapplicationservice.Dependencies{
		Repository: registryRepo,
		Directory:  registryRepo,
		Blobs:      registryRepo,
		Clock:      registrypostgres.SystemClock{},
		IDGen:      registrypostgres.UUIDGenerator{},
		Logger:     logger,
	})

	m := metrics.New(cfg.ServiceName)
	server := httpserver.New(registryModule, identityModule, m, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(cfg.ServiceName).With("process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	repo := registrypostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: registryworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     registrypostgres.SystemClock{},
			Topic:     cfg.LifecycleTopic,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start(ctx)
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
