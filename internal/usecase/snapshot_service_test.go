package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pitchside/prediction-engine/internal/domain/match"
	"github.com/pitchside/prediction-engine/internal/domain/team"
	"github.com/pitchside/prediction-engine/internal/platform/cache"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

type stubTeamRepo struct {
	identities []team.Identity
	err        error
}

func (r *stubTeamRepo) List(_ context.Context) ([]team.Identity, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]team.Identity, len(r.identities))
	copy(out, r.identities)
	return out, nil
}

func (r *stubTeamRepo) UpsertMany(_ context.Context, identities []team.Identity) error {
	for _, identity := range identities {
		replaced := false
		for i := range r.identities {
			if r.identities[i].Key == identity.Key {
				r.identities[i] = identity
				replaced = true
				break
			}
		}
		if !replaced {
			r.identities = append(r.identities, identity)
		}
	}
	return nil
}

func seededTeams(t *testing.T, names ...string) *stubTeamRepo {
	t.Helper()
	repo := &stubTeamRepo{}
	registry := team.NewRegistry("EPL")
	for _, name := range names {
		if _, err := registry.Resolve(name); err != nil {
			t.Fatalf("seed %q: %v", name, err)
		}
	}
	repo.identities = registry.Identities()
	return repo
}

func TestMatchup(t *testing.T) {
	t.Parallel()

	t.Run("returns current ratings and form for both sides", func(t *testing.T) {
		t.Parallel()

		matches := &stubMatchRepo{events: []match.Event{
			finishedEvent(1, "arsenal", "chelsea", 2, 0),
			finishedEvent(5, "chelsea", "arsenal", 1, 1),
		}}
		teams := seededTeams(t, "Arsenal", "Chelsea")
		svc := NewSnapshotService(matches, teams, DefaultFeatureBuildParams(), nil, logging.NewNop())

		result, err := svc.Matchup(context.Background(), "Arsenal", "Chelsea")
		if err != nil {
			t.Fatalf("Matchup() error = %v", err)
		}
		if result.Home.Key != "arsenal" || result.Away.Key != "chelsea" {
			t.Fatalf("keys = %q vs %q", result.Home.Key, result.Away.Key)
		}
		if result.Home.Rating <= result.Away.Rating {
			t.Fatalf("ratings = %v vs %v, want home ahead after a win and a draw",
				result.Home.Rating, result.Away.Rating)
		}
		if math.Abs(result.EloDiff-(result.Home.Rating-result.Away.Rating)) > 1e-9 {
			t.Fatalf("EloDiff = %v", result.EloDiff)
		}
		if result.ExpectedHome <= 0.5 || result.ExpectedHome >= 1.0 {
			t.Fatalf("ExpectedHome = %v, want in (0.5, 1)", result.ExpectedHome)
		}
		if result.Home.Form.Games != 2 || result.Home.Form.Points != 2.0 {
			t.Fatalf("home form = %+v", result.Home.Form)
		}
	})

	t.Run("alias variant resolves without registering", func(t *testing.T) {
		t.Parallel()

		matches := &stubMatchRepo{events: []match.Event{
			finishedEvent(1, "manchester-united", "chelsea", 1, 0),
		}}
		teams := seededTeams(t, "Manchester United", "Chelsea")
		svc := NewSnapshotService(matches, teams, DefaultFeatureBuildParams(), nil, logging.NewNop())

		result, err := svc.Matchup(context.Background(), "Man Utd", "Chelsea")
		if err != nil {
			t.Fatalf("Matchup() error = %v", err)
		}
		if result.Home.Key != "manchester-united" {
			t.Fatalf("home key = %q", result.Home.Key)
		}
	})

	t.Run("repeat query is served from cache until a sync evicts it", func(t *testing.T) {
		t.Parallel()

		matches := &stubMatchRepo{events: []match.Event{
			finishedEvent(1, "arsenal", "chelsea", 2, 0),
		}}
		teams := seededTeams(t, "Arsenal", "Chelsea")
		store := cache.NewStore(time.Minute)
		svc := NewSnapshotService(matches, teams, DefaultFeatureBuildParams(), store, logging.NewNop())

		first, err := svc.Matchup(context.Background(), "Arsenal", "Chelsea")
		if err != nil {
			t.Fatalf("Matchup() error = %v", err)
		}

		// A second event lands but the cached answer is still served.
		matches.events = append(matches.events, finishedEvent(5, "arsenal", "chelsea", 0, 3))
		cached, err := svc.Matchup(context.Background(), "Arsenal", "Chelsea")
		if err != nil {
			t.Fatalf("cached Matchup() error = %v", err)
		}
		if cached.Home.Rating != first.Home.Rating {
			t.Fatalf("cached rating = %v, want %v", cached.Home.Rating, first.Home.Rating)
		}

		store.DeletePrefix(context.Background(), MatchupCachePrefix)
		fresh, err := svc.Matchup(context.Background(), "Arsenal", "Chelsea")
		if err != nil {
			t.Fatalf("fresh Matchup() error = %v", err)
		}
		if fresh.Home.Rating >= first.Home.Rating {
			t.Fatalf("rating = %v after a heavy loss, want below %v", fresh.Home.Rating, first.Home.Rating)
		}
	})

	t.Run("unknown team yields not found", func(t *testing.T) {
		t.Parallel()

		matches := &stubMatchRepo{}
		teams := seededTeams(t, "Arsenal")
		svc := NewSnapshotService(matches, teams, DefaultFeatureBuildParams(), nil, logging.NewNop())

		_, err := svc.Matchup(context.Background(), "Arsenal", "Real Madrid")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("same team twice is invalid input", func(t *testing.T) {
		t.Parallel()

		matches := &stubMatchRepo{}
		teams := seededTeams(t, "Arsenal")
		svc := NewSnapshotService(matches, teams, DefaultFeatureBuildParams(), nil, logging.NewNop())

		_, err := svc.Matchup(context.Background(), "Arsenal", "Arsenal FC")
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("error = %v, want ErrInvalidInput", err)
		}
	})
}
