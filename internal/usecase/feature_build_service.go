package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pitchside/prediction-engine/internal/domain/feature"
	"github.com/pitchside/prediction-engine/internal/domain/form"
	"github.com/pitchside/prediction-engine/internal/domain/match"
	"github.com/pitchside/prediction-engine/internal/domain/rating"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

// FeatureBuildParams tune a rebuild. Zero values fall back to the domain
// defaults, so the zero struct is usable.
type FeatureBuildParams struct {
	KFactor        float64
	WindowSize     int
	MinSamples     int
	DropIncomplete bool
}

func DefaultFeatureBuildParams() FeatureBuildParams {
	return FeatureBuildParams{
		KFactor:        rating.DefaultKFactor,
		WindowSize:     form.DefaultWindowSize,
		MinSamples:     form.DefaultMinSamples,
		DropIncomplete: true,
	}
}

// RunSummary is what one pipeline run reports back. The build stage fills the
// replay counters; the sync stage that feeds it fills the skip counters.
type RunSummary struct {
	RunID                string         `json:"runId,omitempty"`
	Processed            int            `json:"processed"`
	SkippedMalformed     int            `json:"skippedMalformed"`
	SkippedUnresolved    int            `json:"skippedUnresolved"`
	SkippedDuplicate     int            `json:"skippedDuplicate"`
	SkippedUnfinished    int            `json:"skippedUnfinished"`
	ExcludedInsufficient int            `json:"excludedInsufficient"`
	ConnectorGaps        []ConnectorGap `json:"connectorGaps,omitempty"`
	Emitted              int            `json:"emitted"`
	Elapsed              time.Duration  `json:"elapsed"`
}

// Checkpoint captures the replay cursor and both books so a later run can
// resume instead of replaying from the first event. Resuming must produce
// exactly what a full replay would.
type Checkpoint struct {
	Ratings    map[string]rating.State
	CursorDate time.Time
	CursorKey  string
	Applied    int
	Form       map[string][]form.Entry
}

// FeatureBuildService replays the canonical event stream once, in
// chronological order, deriving pre-match ratings and form for every event
// before folding that event's outcome back into the books. The replace-all
// write at the end makes a rebuild idempotent.
type FeatureBuildService struct {
	matches  match.Repository
	features feature.Repository
	params   FeatureBuildParams
	logger   *logging.Logger
}

func NewFeatureBuildService(matches match.Repository, features feature.Repository, params FeatureBuildParams, logger *logging.Logger) *FeatureBuildService {
	if params.KFactor <= 0 {
		params.KFactor = rating.DefaultKFactor
	}
	if params.WindowSize <= 0 {
		params.WindowSize = form.DefaultWindowSize
	}
	if params.MinSamples <= 0 {
		params.MinSamples = form.DefaultMinSamples
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FeatureBuildService{
		matches:  matches,
		features: features,
		params:   params,
		logger:   logger,
	}
}

// Rebuild loads every staged event, replays it, and replaces the derived
// feature set wholesale.
func (s *FeatureBuildService) Rebuild(ctx context.Context) (RunSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeatureBuildService.Rebuild")
	defer span.End()

	start := time.Now()

	if s.matches == nil || s.features == nil {
		return RunSummary{}, fmt.Errorf("%w: feature build repositories are not configured", ErrDependencyUnavailable)
	}

	events, err := s.matches.ListChronological(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load events: %w", err)
	}

	vectors, summary, _, err := s.BuildVectors(ctx, events)
	if err != nil {
		return RunSummary{}, err
	}

	if err := s.features.ReplaceAll(ctx, vectors); err != nil {
		return RunSummary{}, fmt.Errorf("replace feature set: %w", err)
	}

	summary.Elapsed = time.Since(start)
	s.logger.InfoContext(ctx, "feature rebuild complete",
		"processed", summary.Processed,
		"emitted", summary.Emitted,
		"excluded_insufficient", summary.ExcludedInsufficient,
		"elapsed", summary.Elapsed)
	return summary, nil
}

// BuildVectors replays from a cold start.
func (s *FeatureBuildService) BuildVectors(ctx context.Context, events []match.Event) ([]feature.Vector, RunSummary, Checkpoint, error) {
	ratings := rating.NewBook(s.params.KFactor)
	forms := form.NewBook(s.params.WindowSize, s.params.MinSamples)
	return s.replay(ctx, ratings, forms, events)
}

// ResumeVectors replays only the given events on top of a checkpoint.
func (s *FeatureBuildService) ResumeVectors(ctx context.Context, checkpoint Checkpoint, events []match.Event) ([]feature.Vector, RunSummary, Checkpoint, error) {
	ratings := rating.Restore(s.params.KFactor, checkpoint.Ratings, checkpoint.CursorDate, checkpoint.CursorKey, checkpoint.Applied)
	forms := form.Restore(s.params.WindowSize, s.params.MinSamples, checkpoint.Form)
	return s.replay(ctx, ratings, forms, events)
}

func (s *FeatureBuildService) replay(ctx context.Context, ratings *rating.Book, forms *form.Book, events []match.Event) ([]feature.Vector, RunSummary, Checkpoint, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeatureBuildService.replay")
	defer span.End()

	ordered := make([]match.Event, len(events))
	copy(ordered, events)
	match.SortChronological(ordered)

	summary := RunSummary{Processed: len(ordered)}
	vectors := make([]feature.Vector, 0, len(ordered))

	for _, event := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, RunSummary{}, Checkpoint{}, err
		}
		if err := event.Validate(); err != nil {
			summary.SkippedMalformed++
			s.logger.WarnContext(ctx, "skip malformed staged event", "key", event.Key, "error", err)
			continue
		}

		homeForm := forms.SnapshotBefore(event.HomeTeam, event)
		awayForm := forms.SnapshotBefore(event.AwayTeam, event)

		// Ratings and form are read before the event mutates either book.
		// That read-then-apply order is the whole leakage guarantee.
		homeElo, awayElo, err := ratings.ApplyEvent(event)
		if err != nil {
			return nil, RunSummary{}, Checkpoint{}, fmt.Errorf("replay %s: %w", event.Key, err)
		}
		forms.AppendEvent(event)

		if s.params.DropIncomplete && (!homeForm.Sufficient || !awayForm.Sufficient) {
			summary.ExcludedInsufficient++
			continue
		}

		label, homeWin := feature.LabelFor(event)
		vectors = append(vectors, feature.Vector{
			MatchKey: event.Key,
			Date:     event.Date,
			Season:   event.Season,
			HomeTeam: event.HomeTeam,
			AwayTeam: event.AwayTeam,

			HomeElo: homeElo,
			AwayElo: awayElo,
			EloDiff: homeElo - awayElo,

			HomeGoalsLast5:  homeForm.GoalsFor,
			AwayGoalsLast5:  awayForm.GoalsFor,
			HomeXGLast5:     homeForm.XG.Value,
			AwayXGLast5:     awayForm.XG.Value,
			HomePointsLast5: homeForm.Points,
			AwayPointsLast5: awayForm.Points,
			HomePPDALast5:   homeForm.PPDA.Value,
			AwayPPDALast5:   awayForm.PPDA.Value,
			HomeDeepLast5:   homeForm.Deep.Value,
			AwayDeepLast5:   awayForm.Deep.Value,

			HomeRestDays: homeForm.RestDays,
			AwayRestDays: awayForm.RestDays,

			HomeFormGames: homeForm.Games,
			AwayFormGames: awayForm.Games,

			Label:         label,
			TargetHomeWin: homeWin,
		})
	}

	summary.Emitted = len(vectors)

	cursorDate, cursorKey := ratings.LastApplied()
	checkpoint := Checkpoint{
		Ratings:    ratings.States(),
		CursorDate: cursorDate,
		CursorKey:  cursorKey,
		Applied:    ratings.Applied(),
		Form:       forms.All(),
	}
	return vectors, summary, checkpoint, nil
}
