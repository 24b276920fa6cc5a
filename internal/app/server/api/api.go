//POST /api/runs                # Start a migration run
//GET  /api/runs                # List runs
//GET  /api/runs/{id}           # Run with derived progress
//POST /api/runs/{id}/pause     # Cooperative pause
//POST /api/runs/{id}/cancel    # Terminal cancel
//POST /api/runs/{id}/resume    # Continue from checkpoint
//GET  /api/runs/{id}/errors    # Paginated failure log
//GET  /api/integrations/{id}   # Integration without credentials
//PUT  /api/integrations/{id}/token  # Store encrypted API token
//GET  /health

package api

import (
	"crmsync/internal/app/server/api/http/health"
	integrationAPI "crmsync/internal/app/server/api/http/integration"
	"crmsync/internal/app/server/api/http/middleware"
	"crmsync/internal/app/server/api/http/middleware/logger"
	runAPI "crmsync/internal/app/server/api/http/run"
	"crmsync/internal/app/server/config"
	"crmsync/internal/app/server/crypto"
	"crmsync/internal/crm"
	"crmsync/internal/domain/conflict"
	"crmsync/internal/domain/duplicate"
	"crmsync/internal/domain/importer"
	"crmsync/internal/domain/integration"
	"crmsync/internal/domain/run"
	"crmsync/internal/infrastructure/storage/postgres"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

type Handlers struct {
	Health      *health.Handler
	Run         *runAPI.Handler
	Integration *integrationAPI.Handler
}

// New builds a *chi.Mux with all operations registered through huma.
func New(cfg *config.Config, storage *postgres.Storage, log *slog.Logger) (*chi.Mux, error) {
	mux := chi.NewMux()

	humaCfg := huma.DefaultConfig("CRM Sync API", "1.0.0")
	API := humachi.New(mux, humaCfg)

	h, err := handlers(cfg, storage, log)
	if err != nil {
		return nil, err
	}
	h.Health.SetupRoutes(API)
	h.Run.SetupRoutes(API)
	h.Integration.SetupRoutes(API)

	return mux, nil
}

func handlers(cfg *config.Config, storage *postgres.Storage, log *slog.Logger) (*Handlers, error) {
	pool := storage.Pool()

	vault, err := crypto.NewVault(cfg.Vault.MasterKey, cfg.Vault.MasterPassphrase)
	if err != nil {
		return nil, err
	}

	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := health.NewHandler(log, middlewares.GetAllAndClear())

	integrationRepo := postgres.NewIntegrationRepository(pool, log)
	integrationService := integration.NewService(integrationRepo, vault, log)
	middlewares.Add(loggerMW.Middleware())
	integrationHandler := integrationAPI.NewHandler(integrationService, log, middlewares.GetAllAndClear())

	runRepo := postgres.NewRunRepository(pool, log)
	runService := run.NewService(runRepo, log)
	recorder := run.NewRecorder(runRepo, log)

	entityRepo := postgres.NewEntityRepository(pool, log)
	guard := conflict.NewGuard(entityRepo, log)
	resolver := duplicate.NewResolver(entityRepo, postgres.NewDuplicateRepository(pool, log), log)

	clients := func(baseURL, token string) crm.Client {
		return crm.NewHTTPClient(baseURL, token, log)
	}
	processor := importer.NewProcessor(runRepo, runService, recorder, entityRepo,
		resolver, guard, integrationService, clients, cfg.CRM.PageSize, log)
	launcher := importer.NewLauncher(processor, log)

	middlewares.Add(loggerMW.Middleware())
	runHandler := runAPI.NewHandler(runService, launcher, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:      healthHandler,
		Run:         runHandler,
		Integration: integrationHandler,
	}, nil
}
