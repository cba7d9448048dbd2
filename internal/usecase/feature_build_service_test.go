package usecase

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/pitchside/prediction-engine/internal/domain/feature"
	"github.com/pitchside/prediction-engine/internal/domain/match"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

type stubMatchRepo struct {
	events []match.Event
	err    error
}

func (r *stubMatchRepo) ListChronological(_ context.Context) ([]match.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]match.Event, len(r.events))
	copy(out, r.events)
	match.SortChronological(out)
	return out, nil
}

func (r *stubMatchRepo) UpsertMany(_ context.Context, events []match.Event) error {
	for _, event := range events {
		replaced := false
		for i := range r.events {
			if r.events[i].Key == event.Key {
				r.events[i] = event
				replaced = true
				break
			}
		}
		if !replaced {
			r.events = append(r.events, event)
		}
	}
	return nil
}

type stubFeatureRepo struct {
	vectors  []feature.Vector
	replaced int
}

func (r *stubFeatureRepo) ReplaceAll(_ context.Context, vectors []feature.Vector) error {
	r.vectors = append([]feature.Vector(nil), vectors...)
	r.replaced++
	return nil
}

func (r *stubFeatureRepo) List(_ context.Context) ([]feature.Vector, error) {
	out := make([]feature.Vector, len(r.vectors))
	copy(out, r.vectors)
	return out, nil
}

func finishedEvent(d int, home, away string, hg, ag int) match.Event {
	date := day(d)
	return match.Event{
		Key:       match.CompositeKey(date, home, away),
		Date:      date,
		Season:    "2025",
		HomeTeam:  home,
		AwayTeam:  away,
		HomeName:  home,
		AwayName:  away,
		HomeGoals: hg,
		AwayGoals: ag,
	}
}

// roundRobin schedules two fixtures per matchday across four teams, enough
// for every team to pass the sufficiency floor after three matchdays.
func roundRobin(days int) []match.Event {
	pairings := [][4]string{
		{"alpha", "beta", "gamma", "delta"},
		{"alpha", "gamma", "beta", "delta"},
		{"alpha", "delta", "beta", "gamma"},
	}
	var events []match.Event
	for d := 0; d < days; d++ {
		p := pairings[d%len(pairings)]
		events = append(events,
			finishedEvent(d*3+1, p[0], p[1], (d+1)%3, d%2),
			finishedEvent(d*3+1, p[2], p[3], d%2, (d+2)%3),
		)
	}
	return events
}

func TestFeatureBuild(t *testing.T) {
	t.Parallel()

	t.Run("cold-start opener carries baseline ratings", func(t *testing.T) {
		t.Parallel()

		params := DefaultFeatureBuildParams()
		params.DropIncomplete = false
		svc := NewFeatureBuildService(nil, nil, params, logging.NewNop())

		vectors, _, _, err := svc.BuildVectors(context.Background(), []match.Event{
			finishedEvent(1, "alpha", "beta", 2, 0),
		})
		if err != nil {
			t.Fatalf("BuildVectors() error = %v", err)
		}
		if len(vectors) != 1 {
			t.Fatalf("vectors = %d, want 1", len(vectors))
		}
		row := vectors[0]
		if row.HomeElo != 1500.0 || row.AwayElo != 1500.0 || row.EloDiff != 0 {
			t.Fatalf("opener ratings = %v/%v diff %v, want 1500/1500/0", row.HomeElo, row.AwayElo, row.EloDiff)
		}
		if row.Label != match.ResultHomeWin || !row.TargetHomeWin {
			t.Fatalf("label = %d target %v, want home win", row.Label, row.TargetHomeWin)
		}
		if row.HomeFormGames != 0 || row.HomeRestDays != 7.0 {
			t.Fatalf("debut form = %d games restDays %v", row.HomeFormGames, row.HomeRestDays)
		}
	})

	t.Run("ratings on a later row are pre-match values", func(t *testing.T) {
		t.Parallel()

		params := DefaultFeatureBuildParams()
		params.DropIncomplete = false
		svc := NewFeatureBuildService(nil, nil, params, logging.NewNop())

		vectors, _, _, err := svc.BuildVectors(context.Background(), []match.Event{
			finishedEvent(1, "alpha", "beta", 2, 0),
			finishedEvent(5, "alpha", "beta", 0, 0),
		})
		if err != nil {
			t.Fatalf("BuildVectors() error = %v", err)
		}
		second := vectors[1]
		// Home won the opener with equal ratings, so +K/2 and -K/2.
		if math.Abs(second.HomeElo-1510.0) > 1e-9 || math.Abs(second.AwayElo-1490.0) > 1e-9 {
			t.Fatalf("second row ratings = %v/%v, want 1510/1490", second.HomeElo, second.AwayElo)
		}
		if second.HomeFormGames != 1 || math.Abs(second.HomeRestDays-4.0) > 1e-9 {
			t.Fatalf("form games = %d restDays = %v", second.HomeFormGames, second.HomeRestDays)
		}
	})

	t.Run("insufficient history is excluded and counted", func(t *testing.T) {
		t.Parallel()

		svc := NewFeatureBuildService(nil, nil, DefaultFeatureBuildParams(), logging.NewNop())
		events := roundRobin(5)

		vectors, summary, _, err := svc.BuildVectors(context.Background(), events)
		if err != nil {
			t.Fatalf("BuildVectors() error = %v", err)
		}
		// The first three matchdays leave every team short of three prior
		// games, so six of ten events cannot back a row.
		if summary.ExcludedInsufficient != 6 {
			t.Fatalf("ExcludedInsufficient = %d, want 6", summary.ExcludedInsufficient)
		}
		if summary.Emitted != len(vectors) || len(vectors) != 4 {
			t.Fatalf("emitted = %d vectors = %d, want 4", summary.Emitted, len(vectors))
		}
		for _, row := range vectors {
			if row.HomeFormGames < 3 || row.AwayFormGames < 3 {
				t.Fatalf("row %s emitted with %d/%d form games", row.MatchKey, row.HomeFormGames, row.AwayFormGames)
			}
		}
	})

	t.Run("shuffled input yields identical output", func(t *testing.T) {
		t.Parallel()

		svc := NewFeatureBuildService(nil, nil, DefaultFeatureBuildParams(), logging.NewNop())
		events := roundRobin(6)

		baseline, _, _, err := svc.BuildVectors(context.Background(), events)
		if err != nil {
			t.Fatalf("BuildVectors() error = %v", err)
		}

		shuffled := make([]match.Event, len(events))
		copy(shuffled, events)
		for i := range shuffled {
			j := (i*7 + 3) % len(shuffled)
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		}
		again, _, _, err := svc.BuildVectors(context.Background(), shuffled)
		if err != nil {
			t.Fatalf("BuildVectors() error = %v", err)
		}
		if !reflect.DeepEqual(baseline, again) {
			t.Fatal("replay is not order-independent over shuffled input")
		}
	})

	t.Run("resume from checkpoint equals full replay", func(t *testing.T) {
		t.Parallel()

		svc := NewFeatureBuildService(nil, nil, DefaultFeatureBuildParams(), logging.NewNop())
		events := roundRobin(8)

		full, _, _, err := svc.BuildVectors(context.Background(), events)
		if err != nil {
			t.Fatalf("full replay error = %v", err)
		}

		split := 10
		head, _, checkpoint, err := svc.BuildVectors(context.Background(), events[:split])
		if err != nil {
			t.Fatalf("head replay error = %v", err)
		}
		tail, _, _, err := svc.ResumeVectors(context.Background(), checkpoint, events[split:])
		if err != nil {
			t.Fatalf("resumed replay error = %v", err)
		}

		combined := append(append([]feature.Vector(nil), head...), tail...)
		if !reflect.DeepEqual(full, combined) {
			t.Fatal("checkpoint resume diverges from full replay")
		}
	})

	t.Run("rebuild replaces the stored feature set", func(t *testing.T) {
		t.Parallel()

		matches := &stubMatchRepo{events: roundRobin(5)}
		features := &stubFeatureRepo{vectors: []feature.Vector{{MatchKey: "stale"}}}
		svc := NewFeatureBuildService(matches, features, DefaultFeatureBuildParams(), logging.NewNop())

		summary, err := svc.Rebuild(context.Background())
		if err != nil {
			t.Fatalf("Rebuild() error = %v", err)
		}
		if features.replaced != 1 {
			t.Fatalf("ReplaceAll calls = %d, want 1", features.replaced)
		}
		if len(features.vectors) != summary.Emitted {
			t.Fatalf("stored = %d, summary emitted = %d", len(features.vectors), summary.Emitted)
		}
		for _, row := range features.vectors {
			if row.MatchKey == "stale" {
				t.Fatal("stale row survived a rebuild")
			}
		}
	})

	t.Run("malformed staged event is skipped and counted", func(t *testing.T) {
		t.Parallel()

		svc := NewFeatureBuildService(nil, nil, DefaultFeatureBuildParams(), logging.NewNop())
		bad := finishedEvent(2, "alpha", "beta", 1, 0)
		bad.HomeTeam = ""

		_, summary, _, err := svc.BuildVectors(context.Background(), append(roundRobin(4), bad))
		if err != nil {
			t.Fatalf("BuildVectors() error = %v", err)
		}
		if summary.SkippedMalformed != 1 {
			t.Fatalf("SkippedMalformed = %d, want 1", summary.SkippedMalformed)
		}
	})
}
