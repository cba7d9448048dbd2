package app

import (
	"fmt"
	"net/http"

	"github.com/pitchside/prediction-engine/external/apifootball"
	"github.com/pitchside/prediction-engine/external/understat"
	"github.com/pitchside/prediction-engine/internal/config"
	"github.com/pitchside/prediction-engine/internal/domain/feature"
	"github.com/pitchside/prediction-engine/internal/domain/match"
	"github.com/pitchside/prediction-engine/internal/domain/team"
	"github.com/pitchside/prediction-engine/internal/infrastructure/repository/memory"
	"github.com/pitchside/prediction-engine/internal/infrastructure/repository/postgres"
	"github.com/pitchside/prediction-engine/internal/interfaces/httpapi"
	"github.com/pitchside/prediction-engine/internal/platform/cache"
	idgen "github.com/pitchside/prediction-engine/internal/platform/id"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
	"github.com/pitchside/prediction-engine/internal/platform/resilience"
	"github.com/pitchside/prediction-engine/internal/usecase"
)

// App owns the wired services. Storage is postgres when DATABASE_URL is set,
// otherwise in-memory (useful for local runs and the CLI against fixtures).
type App struct {
	Config config.Config

	Matches  match.Repository
	Teams    team.Repository
	Features feature.Repository

	FeatureService  *usecase.FeatureBuildService
	SnapshotService *usecase.SnapshotService
	SyncService     *usecase.SyncService

	logger  *logging.Logger
	cleanup func() error
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{
		Config:  cfg,
		logger:  logger,
		cleanup: func() error { return nil },
	}

	if cfg.DBURL != "" {
		db, err := openDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.cleanup = db.Close
		a.Matches = postgres.NewMatchRepository(db)
		a.Teams = postgres.NewTeamRepository(db)
		a.Features = postgres.NewFeatureRepository(db)
		logger.Info("storage ready", "backend", "postgres", "database", dbNameFromURL(cfg.DBURL))
	} else {
		a.Matches = memory.NewMatchRepository(nil)
		a.Teams = memory.NewTeamRepository(nil)
		a.Features = memory.NewFeatureRepository()
		logger.Info("storage ready", "backend", "memory")
	}

	params := usecase.FeatureBuildParams{
		KFactor:        cfg.EloKFactor,
		WindowSize:     cfg.FormWindowSize,
		MinSamples:     cfg.FormMinSamples,
		DropIncomplete: cfg.FeatureDropIncomplete,
	}

	store := cache.NewStore(cfg.CacheTTL)

	a.FeatureService = usecase.NewFeatureBuildService(a.Matches, a.Features, params, logger)
	a.SnapshotService = usecase.NewSnapshotService(a.Matches, a.Teams, params, store, logger)

	normalizer := usecase.NewNormalizerService(logger, cfg.NormalizerWorkers)
	ingestion := usecase.NewIngestionService(a.Matches, a.Teams, logger)
	a.SyncService = usecase.NewSyncService(
		buildFixtureConnectors(cfg, logger),
		buildStatsConnectors(cfg, logger),
		normalizer,
		ingestion,
		a.Teams,
		store,
		idgen.NewRandomGenerator(),
		logger,
	)

	return a, nil
}

// Close releases storage handles.
func (a *App) Close() error {
	return a.cleanup()
}

func buildFixtureConnectors(cfg config.Config, logger *logging.Logger) []usecase.FixtureConnector {
	var connectors []usecase.FixtureConnector
	if cfg.APIFootballEnabled {
		connectors = append(connectors, apifootball.NewClient(apifootball.ClientConfig{
			BaseURL:    cfg.APIFootballBaseURL,
			APIKey:     cfg.APIFootballKey,
			Timeout:    cfg.APIFootballTimeout,
			MaxRetries: cfg.APIFootballMaxRetries,
			LeagueIDs:  cfg.APIFootballLeagueIDs,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.APIFootballCircuitEnabled,
				FailureThreshold: cfg.APIFootballCircuitFailureCount,
				OpenTimeout:      cfg.APIFootballCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.APIFootballCircuitHalfOpenMaxReq,
			},
		}))
	}
	return connectors
}

func buildStatsConnectors(cfg config.Config, logger *logging.Logger) []usecase.StatsConnector {
	var connectors []usecase.StatsConnector
	if cfg.UnderstatEnabled {
		connectors = append(connectors, understat.NewClient(understat.ClientConfig{
			BaseURL:    cfg.UnderstatBaseURL,
			Timeout:    cfg.UnderstatTimeout,
			MaxRetries: cfg.UnderstatMaxRetries,
			Logger:     logger,
		}))
	}
	return connectors
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, *App, error) {
	a, err := New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	handler := httpapi.NewHandler(a.FeatureService, a.SnapshotService, a.SyncService, logger)
	router := httpapi.NewRouter(handler, logger, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, a, nil
}
