package feature

import (
	"context"
	"time"

	"github.com/pitchside/prediction-engine/internal/domain/match"
)

// Vector is one training row for a single match. Every field is computable
// from information dated strictly before the match; the labels are the only
// post-match facts it carries.
type Vector struct {
	MatchKey string
	Date     time.Time
	Season   string

	HomeTeam string
	AwayTeam string

	HomeElo float64
	AwayElo float64
	EloDiff float64

	HomeGoalsLast5  float64
	AwayGoalsLast5  float64
	HomeXGLast5     float64
	AwayXGLast5     float64
	HomePointsLast5 float64
	AwayPointsLast5 float64
	HomePPDALast5   float64
	AwayPPDALast5   float64
	HomeDeepLast5   float64
	AwayDeepLast5   float64

	HomeRestDays float64
	AwayRestDays float64

	HomeFormGames int
	AwayFormGames int

	Label         int
	TargetHomeWin bool
}

// LabelFor derives the class label and binary target from a finished event.
func LabelFor(event match.Event) (int, bool) {
	result := event.Result()
	return result, result == match.ResultHomeWin
}

// Repository persists derived rows with full-replace-on-rebuild semantics:
// the table is disposable and safe to regenerate wholesale.
type Repository interface {
	ReplaceAll(ctx context.Context, vectors []Vector) error
	List(ctx context.Context) ([]Vector, error)
}
