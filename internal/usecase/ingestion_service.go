package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/prediction-engine/internal/domain/match"
	"github.com/pitchside/prediction-engine/internal/domain/team"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

// IngestionService merges secondary-source records (expected goals, pressing
// metrics) onto the canonical event stream and persists the staged result.
// Records that cannot be paired with an event are dropped and counted; a
// missing metric stays nil, it is never written as zero.
type IngestionService struct {
	matches match.Repository
	teams   team.Repository
	logger  *logging.Logger
}

type MergeResult struct {
	MergedStats      int
	MergedTactics    int
	UnmatchedStats   int
	UnmatchedTactics int
}

func NewIngestionService(matches match.Repository, teams team.Repository, logger *logging.Logger) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestionService{
		matches: matches,
		teams:   teams,
		logger:  logger,
	}
}

// MergeStats attaches per-match expected goals onto events in place. Pairing
// keys on the match day plus a "home - away" composite of the source's display
// names, exact first, then containment either way.
func (s *IngestionService) MergeStats(ctx context.Context, events []match.Event, stats []ExternalMatchStat) MergeResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.MergeStats")
	defer span.End()

	byDay := indexEventsByDay(events)

	var result MergeResult
	for _, stat := range stats {
		idx, ok := pairEvent(byDay[dayKey(stat.Date)], events, compositeName(stat.HomeName, stat.AwayName))
		if !ok {
			result.UnmatchedStats++
			s.logger.WarnContext(ctx, "expected-goals record matches no event",
				"source", stat.Source, "home", stat.HomeName, "away", stat.AwayName, "date", dayKey(stat.Date))
			continue
		}
		if stat.HomeXG != nil {
			events[idx].HomeXG = stat.HomeXG
		}
		if stat.AwayXG != nil {
			events[idx].AwayXG = stat.AwayXG
		}
		result.MergedStats++
	}
	return result
}

// MergeTactics attaches pressing metrics for one side of a paired event.
func (s *IngestionService) MergeTactics(ctx context.Context, events []match.Event, tactics []ExternalTactic) MergeResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.MergeTactics")
	defer span.End()

	byDay := indexEventsByDay(events)

	var result MergeResult
	for _, tactic := range tactics {
		idx, ok := pairEventBySide(byDay[dayKey(tactic.Date)], events, tactic.TeamName, tactic.Side)
		if !ok {
			result.UnmatchedTactics++
			s.logger.WarnContext(ctx, "tactics record matches no event",
				"source", tactic.Source, "team", tactic.TeamName, "side", tactic.Side, "date", dayKey(tactic.Date))
			continue
		}

		target := &events[idx].HomeTactical
		if strings.EqualFold(tactic.Side, "away") {
			target = &events[idx].AwayTactical
		}
		if tactic.PPDA != nil {
			target.PPDA = tactic.PPDA
		}
		if tactic.Deep != nil {
			target.Deep = tactic.Deep
		}
		result.MergedTactics++
	}
	return result
}

// PersistEvents stages the merged stream. Upserts keyed on the composite key
// keep repeated syncs idempotent.
func (s *IngestionService) PersistEvents(ctx context.Context, events []match.Event) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.PersistEvents")
	defer span.End()

	if s.matches == nil {
		return fmt.Errorf("%w: match repository is not configured", ErrDependencyUnavailable)
	}
	if err := s.matches.UpsertMany(ctx, events); err != nil {
		return fmt.Errorf("persist events: %w", err)
	}
	s.logger.InfoContext(ctx, "events staged", "count", len(events))
	return nil
}

// PersistIdentities stages the alias registry so later runs resolve the same
// names to the same keys.
func (s *IngestionService) PersistIdentities(ctx context.Context, identities []team.Identity) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.PersistIdentities")
	defer span.End()

	if s.teams == nil {
		return fmt.Errorf("%w: team repository is not configured", ErrDependencyUnavailable)
	}
	if err := s.teams.UpsertMany(ctx, identities); err != nil {
		return fmt.Errorf("persist identities: %w", err)
	}
	s.logger.InfoContext(ctx, "identities staged", "count", len(identities))
	return nil
}

func indexEventsByDay(events []match.Event) map[string][]int {
	byDay := make(map[string][]int, len(events))
	for i, event := range events {
		key := dayKey(event.Date)
		byDay[key] = append(byDay[key], i)
	}
	return byDay
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func compositeName(home, away string) string {
	return strings.TrimSpace(home) + " - " + strings.TrimSpace(away)
}

// pairEvent finds the same-day event whose name composite matches the record's.
// Exact match wins; otherwise whole-composite containment either way. The first
// candidate in stream order is taken so repeated merges stay deterministic.
func pairEvent(candidates []int, events []match.Event, composite string) (int, bool) {
	for _, idx := range candidates {
		if compositeName(events[idx].HomeName, events[idx].AwayName) == composite {
			return idx, true
		}
	}
	for _, idx := range candidates {
		own := compositeName(events[idx].HomeName, events[idx].AwayName)
		if strings.Contains(own, composite) || strings.Contains(composite, own) {
			return idx, true
		}
	}
	return 0, false
}

func pairEventBySide(candidates []int, events []match.Event, teamName, side string) (int, bool) {
	name := strings.TrimSpace(teamName)
	if name == "" {
		return 0, false
	}
	away := strings.EqualFold(side, "away")

	sideName := func(idx int) string {
		if away {
			return events[idx].AwayName
		}
		return events[idx].HomeName
	}

	for _, idx := range candidates {
		if sideName(idx) == name {
			return idx, true
		}
	}
	for _, idx := range candidates {
		own := sideName(idx)
		if strings.Contains(own, name) || strings.Contains(name, own) {
			return idx, true
		}
	}
	return 0, false
}
