package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/pitchside/prediction-engine/internal/domain/match"
	"github.com/pitchside/prediction-engine/internal/domain/team"
	"github.com/pitchside/prediction-engine/internal/platform/cache"
	idgen "github.com/pitchside/prediction-engine/internal/platform/id"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

// FixtureConnector pulls finished fixtures from one upstream provider.
type FixtureConnector interface {
	Name() string
	Fixtures(ctx context.Context, competition, season string) ([]ExternalFixture, error)
}

// StatsConnector pulls per-match metrics that the primary provider lacks.
type StatsConnector interface {
	Name() string
	MatchStats(ctx context.Context, competition, season string) ([]ExternalMatchStat, error)
	Tactics(ctx context.Context, competition, season string) ([]ExternalTactic, error)
}

// SyncService runs one ingest cycle: fetch every source concurrently,
// normalize, merge, stage. A dead source becomes a gap marker in the summary
// and the cycle carries on with whatever arrived; only storage failures
// abort.
type SyncService struct {
	fixtures   []FixtureConnector
	stats      []StatsConnector
	normalizer *NormalizerService
	ingestion  *IngestionService
	teams      team.Repository
	cache      *cache.Store
	ids        idgen.Generator
	logger     *logging.Logger
}

func NewSyncService(
	fixtures []FixtureConnector,
	stats []StatsConnector,
	normalizer *NormalizerService,
	ingestion *IngestionService,
	teams team.Repository,
	store *cache.Store,
	ids idgen.Generator,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = idgen.NewRandomGenerator()
	}
	return &SyncService{
		fixtures:   fixtures,
		stats:      stats,
		normalizer: normalizer,
		ingestion:  ingestion,
		teams:      teams,
		cache:      store,
		ids:        ids,
		logger:     logger,
	}
}

type fetchedStats struct {
	stats   []ExternalMatchStat
	tactics []ExternalTactic
}

// Sync ingests one competition season and stages the merged events.
func (s *SyncService) Sync(ctx context.Context, competition, season string) (RunSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Sync")
	defer span.End()

	start := time.Now()

	if competition == "" || season == "" {
		return RunSummary{}, fmt.Errorf("%w: competition and season are required", ErrInvalidInput)
	}
	if len(s.fixtures) == 0 {
		return RunSummary{}, fmt.Errorf("%w: no fixture connector is configured", ErrConnectorUnavailable)
	}
	if s.normalizer == nil || s.ingestion == nil || s.teams == nil {
		return RunSummary{}, fmt.Errorf("%w: sync pipeline is not fully wired", ErrDependencyUnavailable)
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return RunSummary{}, fmt.Errorf("generate run id: %w", err)
	}

	fixtureBatches := make([][]ExternalFixture, len(s.fixtures))
	statBatches := make([]fetchedStats, len(s.stats))
	gaps := make([]*ConnectorGap, len(s.fixtures)+len(s.stats))

	p := pool.New().WithContext(ctx)
	for i, connector := range s.fixtures {
		i, connector := i, connector
		p.Go(func(ctx context.Context) error {
			batch, err := connector.Fixtures(ctx, competition, season)
			if err != nil {
				gaps[i] = &ConnectorGap{Source: connector.Name(), Competition: competition, Reason: err.Error()}
				s.logger.WarnContext(ctx, "fixture connector failed",
					"source", connector.Name(), "competition", competition, "season", season, "error", err)
				return nil
			}
			fixtureBatches[i] = batch
			return nil
		})
	}
	for i, connector := range s.stats {
		i, connector := i, connector
		p.Go(func(ctx context.Context) error {
			stats, err := connector.MatchStats(ctx, competition, season)
			if err != nil {
				gaps[len(s.fixtures)+i] = &ConnectorGap{Source: connector.Name(), Competition: competition, Reason: err.Error()}
				s.logger.WarnContext(ctx, "stats connector failed",
					"source", connector.Name(), "competition", competition, "season", season, "error", err)
				return nil
			}
			tactics, err := connector.Tactics(ctx, competition, season)
			if err != nil {
				gaps[len(s.fixtures)+i] = &ConnectorGap{Source: connector.Name(), Competition: competition, Reason: err.Error()}
				s.logger.WarnContext(ctx, "tactics connector failed",
					"source", connector.Name(), "competition", competition, "season", season, "error", err)
				return nil
			}
			statBatches[i] = fetchedStats{stats: stats, tactics: tactics}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		// Only context cancellation surfaces here; connector failures are
		// swallowed into gap markers above.
		return RunSummary{}, err
	}

	var fixtures []ExternalFixture
	for _, batch := range fixtureBatches {
		fixtures = append(fixtures, batch...)
	}

	identities, err := s.teams.List(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load identities: %w", err)
	}
	registry := team.NewRegistry(competition)
	if err := registry.Seed(identities); err != nil {
		return RunSummary{}, fmt.Errorf("seed identity registry: %w", err)
	}

	normalized, err := s.normalizer.NormalizeFixtures(ctx, registry, fixtures)
	if err != nil {
		return RunSummary{}, err
	}

	events := normalized.Events
	for _, batch := range statBatches {
		s.ingestion.MergeStats(ctx, events, batch.stats)
		s.ingestion.MergeTactics(ctx, events, batch.tactics)
	}

	match.SortChronological(events)

	if err := s.ingestion.PersistIdentities(ctx, registry.Identities()); err != nil {
		return RunSummary{}, err
	}
	if err := s.ingestion.PersistEvents(ctx, events); err != nil {
		return RunSummary{}, err
	}
	if s.cache != nil {
		// Staged history changed, so every cached matchup answer is stale.
		s.cache.DeletePrefix(ctx, MatchupCachePrefix)
	}

	summary := RunSummary{
		RunID:             runID,
		Processed:         normalized.Processed,
		SkippedMalformed:  normalized.SkippedMalformed,
		SkippedUnresolved: normalized.SkippedUnresolved,
		SkippedDuplicate:  normalized.SkippedDuplicate,
		SkippedUnfinished: normalized.SkippedUnfinished,
		Emitted:           len(events),
		Elapsed:           time.Since(start),
	}
	for _, gap := range gaps {
		if gap != nil {
			summary.ConnectorGaps = append(summary.ConnectorGaps, *gap)
		}
	}

	s.logger.InfoContext(ctx, "sync complete",
		"run_id", runID,
		"competition", competition,
		"season", season,
		"staged", len(events),
		"skipped_malformed", summary.SkippedMalformed,
		"skipped_unresolved", summary.SkippedUnresolved,
		"connector_gaps", len(summary.ConnectorGaps),
		"elapsed", summary.Elapsed)
	return summary, nil
}
