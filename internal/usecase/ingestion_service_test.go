package usecase

import (
	"context"
	"testing"

	"github.com/pitchside/prediction-engine/internal/domain/match"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

func stagedEvent(d int, homeKey, awayKey, homeName, awayName string) match.Event {
	date := day(d)
	return match.Event{
		Key:      match.CompositeKey(date, homeKey, awayKey),
		Date:     date,
		Season:   "2025",
		HomeTeam: homeKey,
		AwayTeam: awayKey,
		HomeName: homeName,
		AwayName: awayName,
	}
}

func TestMergeStats(t *testing.T) {
	t.Parallel()

	t.Run("exact composite pairs on the same day", func(t *testing.T) {
		t.Parallel()

		events := []match.Event{
			stagedEvent(1, "arsenal", "chelsea", "Arsenal", "Chelsea"),
			stagedEvent(1, "liverpool", "everton", "Liverpool", "Everton"),
		}
		svc := NewIngestionService(nil, nil, logging.NewNop())

		result := svc.MergeStats(context.Background(), events, []ExternalMatchStat{
			{Source: "understat", Date: day(1), HomeName: "Liverpool", AwayName: "Everton", HomeXG: floatPtr(2.4), AwayXG: floatPtr(0.6)},
		})
		if result.MergedStats != 1 || result.UnmatchedStats != 0 {
			t.Fatalf("result = %+v", result)
		}
		if events[1].HomeXG == nil || *events[1].HomeXG != 2.4 {
			t.Fatalf("HomeXG = %v, want 2.4", events[1].HomeXG)
		}
		if events[0].HomeXG != nil {
			t.Fatalf("unrelated event gained xG %v", *events[0].HomeXG)
		}
	})

	t.Run("containment fallback pairs shortened names", func(t *testing.T) {
		t.Parallel()

		events := []match.Event{
			stagedEvent(1, "manchester-united", "chelsea", "Manchester United FC", "Chelsea FC"),
		}
		svc := NewIngestionService(nil, nil, logging.NewNop())

		result := svc.MergeStats(context.Background(), events, []ExternalMatchStat{
			{Source: "understat", Date: day(1), HomeName: "Manchester United", AwayName: "Chelsea", HomeXG: floatPtr(1.8)},
		})
		if result.MergedStats != 1 {
			t.Fatalf("result = %+v", result)
		}
		if events[0].HomeXG == nil || *events[0].HomeXG != 1.8 {
			t.Fatalf("HomeXG = %v, want 1.8", events[0].HomeXG)
		}
	})

	t.Run("unmatched records leave events untouched", func(t *testing.T) {
		t.Parallel()

		events := []match.Event{
			stagedEvent(1, "arsenal", "chelsea", "Arsenal", "Chelsea"),
		}
		svc := NewIngestionService(nil, nil, logging.NewNop())

		result := svc.MergeStats(context.Background(), events, []ExternalMatchStat{
			{Source: "understat", Date: day(2), HomeName: "Arsenal", AwayName: "Chelsea", HomeXG: floatPtr(1.0)},
			{Source: "understat", Date: day(1), HomeName: "Burnley", AwayName: "Fulham", HomeXG: floatPtr(1.0)},
		})
		if result.UnmatchedStats != 2 || result.MergedStats != 0 {
			t.Fatalf("result = %+v", result)
		}
		if events[0].HomeXG != nil || events[0].AwayXG != nil {
			t.Fatal("unmatched merge must not write xG")
		}
	})

	t.Run("partial records keep absent side nil", func(t *testing.T) {
		t.Parallel()

		events := []match.Event{
			stagedEvent(1, "arsenal", "chelsea", "Arsenal", "Chelsea"),
		}
		svc := NewIngestionService(nil, nil, logging.NewNop())

		svc.MergeStats(context.Background(), events, []ExternalMatchStat{
			{Source: "understat", Date: day(1), HomeName: "Arsenal", AwayName: "Chelsea", HomeXG: floatPtr(1.2)},
		})
		if events[0].HomeXG == nil || events[0].AwayXG != nil {
			t.Fatalf("HomeXG = %v, AwayXG = %v; want set, nil", events[0].HomeXG, events[0].AwayXG)
		}
	})
}

func TestMergeTactics(t *testing.T) {
	t.Parallel()

	t.Run("side-aware pairing writes the right block", func(t *testing.T) {
		t.Parallel()

		events := []match.Event{
			stagedEvent(1, "arsenal", "chelsea", "Arsenal", "Chelsea"),
		}
		svc := NewIngestionService(nil, nil, logging.NewNop())

		result := svc.MergeTactics(context.Background(), events, []ExternalTactic{
			{Source: "understat", Date: day(1), TeamName: "Arsenal", Side: "home", PPDA: floatPtr(8.5), Deep: floatPtr(12)},
			{Source: "understat", Date: day(1), TeamName: "Chelsea", Side: "away", PPDA: floatPtr(14.2)},
		})
		if result.MergedTactics != 2 {
			t.Fatalf("result = %+v", result)
		}
		if events[0].HomeTactical.PPDA == nil || *events[0].HomeTactical.PPDA != 8.5 {
			t.Fatalf("home PPDA = %v", events[0].HomeTactical.PPDA)
		}
		if events[0].AwayTactical.PPDA == nil || *events[0].AwayTactical.PPDA != 14.2 {
			t.Fatalf("away PPDA = %v", events[0].AwayTactical.PPDA)
		}
		if events[0].AwayTactical.Deep != nil {
			t.Fatalf("away Deep = %v, want nil", *events[0].AwayTactical.Deep)
		}
	})

	t.Run("wrong side does not pair", func(t *testing.T) {
		t.Parallel()

		events := []match.Event{
			stagedEvent(1, "arsenal", "chelsea", "Arsenal", "Chelsea"),
		}
		svc := NewIngestionService(nil, nil, logging.NewNop())

		result := svc.MergeTactics(context.Background(), events, []ExternalTactic{
			{Source: "understat", Date: day(1), TeamName: "Arsenal", Side: "away", PPDA: floatPtr(9)},
		})
		if result.UnmatchedTactics != 1 || result.MergedTactics != 0 {
			t.Fatalf("result = %+v", result)
		}
	})
}

func TestPersistEvents(t *testing.T) {
	t.Parallel()

	t.Run("missing repository fails fast", func(t *testing.T) {
		t.Parallel()

		svc := NewIngestionService(nil, nil, logging.NewNop())
		err := svc.PersistEvents(context.Background(), []match.Event{stagedEvent(1, "a", "b", "A", "B")})
		if err == nil {
			t.Fatal("expected error with no repository")
		}
	})
}
