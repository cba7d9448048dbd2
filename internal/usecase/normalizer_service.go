package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pitchside/prediction-engine/internal/domain/match"
	"github.com/pitchside/prediction-engine/internal/domain/team"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

// NormalizerService turns heterogeneous connector records into canonical
// match events. Field validation runs in parallel across a worker pool;
// identity resolution stays sequential in input order because the registry
// grows as a side effect and registration order must be deterministic.
type NormalizerService struct {
	logger     *logging.Logger
	maxWorkers int
}

type NormalizeResult struct {
	Events            []match.Event
	Processed         int
	SkippedMalformed  int
	SkippedUnresolved int
	SkippedDuplicate  int
	SkippedUnfinished int
}

func NewNormalizerService(logger *logging.Logger, maxWorkers int) *NormalizerService {
	if logger == nil {
		logger = logging.Default()
	}
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &NormalizerService{
		logger:     logger,
		maxWorkers: maxWorkers,
	}
}

// NormalizeFixtures validates raw fixtures concurrently, then resolves team
// identities and assembles events sequentially. The resolver is passed per
// run because the sync pipeline seeds a fresh registry from storage each
// time. Per-record failures are counted and logged, never fatal.
func (s *NormalizerService) NormalizeFixtures(ctx context.Context, resolver team.Resolver, fixtures []ExternalFixture) (NormalizeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.NormalizerService.NormalizeFixtures")
	defer span.End()

	result := NormalizeResult{Processed: len(fixtures)}
	if len(fixtures) == 0 {
		return result, nil
	}
	if resolver == nil {
		return NormalizeResult{}, fmt.Errorf("%w: identity resolver is not configured", ErrDependencyUnavailable)
	}

	validated := make([]error, len(fixtures))
	workers := s.maxWorkers
	if workers > len(fixtures) {
		workers = len(fixtures)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return NormalizeResult{}, fmt.Errorf("create normalizer worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for idx := range fixtures {
		idx := idx
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			validated[idx] = validateFixture(fixtures[idx])
		}); err != nil {
			wg.Done()
			return NormalizeResult{}, fmt.Errorf("submit fixture validation: %w", err)
		}
	}
	wg.Wait()

	seen := make(map[string]struct{}, len(fixtures))
	events := make([]match.Event, 0, len(fixtures))
	for idx, raw := range fixtures {
		if err := validated[idx]; err != nil {
			result.SkippedMalformed++
			s.logger.WarnContext(ctx, "skip malformed record",
				"source", raw.Source, "home", raw.HomeName, "away", raw.AwayName, "error", err)
			continue
		}
		if !isFinishedStatus(raw.Status) {
			result.SkippedUnfinished++
			continue
		}

		home, err := resolver.Resolve(raw.HomeName)
		if err != nil {
			result.SkippedUnresolved++
			s.logger.WarnContext(ctx, "skip record with unresolved home team",
				"source", raw.Source, "name", raw.HomeName, "error", err)
			continue
		}
		away, err := resolver.Resolve(raw.AwayName)
		if err != nil {
			result.SkippedUnresolved++
			s.logger.WarnContext(ctx, "skip record with unresolved away team",
				"source", raw.Source, "name", raw.AwayName, "error", err)
			continue
		}
		if home.Key == away.Key {
			result.SkippedMalformed++
			s.logger.WarnContext(ctx, "skip record where both names resolve to one team",
				"source", raw.Source, "home", raw.HomeName, "away", raw.AwayName, "team", home.Key)
			continue
		}

		key := match.CompositeKey(*raw.Date, home.Key, away.Key)
		if _, dup := seen[key]; dup {
			result.SkippedDuplicate++
			continue
		}
		seen[key] = struct{}{}

		events = append(events, match.Event{
			Key:         key,
			Date:        raw.Date.UTC(),
			Season:      strings.TrimSpace(raw.Season),
			Competition: strings.TrimSpace(raw.Competition),
			HomeTeam:    home.Key,
			AwayTeam:    away.Key,
			HomeName:    home.DisplayName,
			AwayName:    away.DisplayName,
			HomeGoals:   *raw.HomeGoals,
			AwayGoals:   *raw.AwayGoals,
		})
	}

	result.Events = events
	return result, nil
}

// validateFixture checks the fields the engine cannot work without. Missing
// score, missing date, or missing both team names make a record malformed.
func validateFixture(raw ExternalFixture) error {
	if raw.Date == nil || raw.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrMalformedRecord)
	}
	if raw.HomeGoals == nil || raw.AwayGoals == nil {
		return fmt.Errorf("%w: missing final score", ErrMalformedRecord)
	}
	if *raw.HomeGoals < 0 || *raw.AwayGoals < 0 {
		return fmt.Errorf("%w: negative score", ErrMalformedRecord)
	}
	if strings.TrimSpace(raw.HomeName) == "" && strings.TrimSpace(raw.AwayName) == "" {
		return fmt.Errorf("%w: missing both team names", ErrMalformedRecord)
	}
	return nil
}

func isFinishedStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FT", "AET", "PEN", "FINISHED":
		return true
	default:
		return false
	}
}
