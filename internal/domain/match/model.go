package match

import (
	"fmt"
	"sort"
	"time"
)

// Result classes from the home side's perspective.
const (
	ResultAwayWin = 0
	ResultDraw    = 1
	ResultHomeWin = 2
)

// Tactical carries scraped per-side tactical indices. Fields are pointers
// because absence and zero mean different things downstream.
type Tactical struct {
	PPDA *float64
	Deep *float64
}

// Event is the canonical record of one finished real-world match. Exactly one
// event exists per match and events are immutable once normalized.
type Event struct {
	Key         string
	Date        time.Time
	Season      string
	Competition string

	HomeTeam string
	AwayTeam string
	HomeName string
	AwayName string

	HomeGoals int
	AwayGoals int

	HomeXG *float64
	AwayXG *float64

	HomeTactical Tactical
	AwayTactical Tactical
}

// CompositeKey derives the stable match identifier: date + home + away.
func CompositeKey(date time.Time, homeTeam, awayTeam string) string {
	return fmt.Sprintf("%s-%s-%s", date.UTC().Format("2006-01-02"), homeTeam, awayTeam)
}

func (e Event) Validate() error {
	if e.Key == "" {
		return fmt.Errorf("match key is required")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("match date is required")
	}
	if e.HomeTeam == "" || e.AwayTeam == "" {
		return fmt.Errorf("match team keys are required")
	}
	if e.HomeGoals < 0 || e.AwayGoals < 0 {
		return fmt.Errorf("match goals cannot be negative")
	}
	return nil
}

// Result returns the class label from the home perspective.
func (e Event) Result() int {
	switch {
	case e.HomeGoals > e.AwayGoals:
		return ResultHomeWin
	case e.HomeGoals == e.AwayGoals:
		return ResultDraw
	default:
		return ResultAwayWin
	}
}

// Outcome is the actual score for the rating update: 1 home win, 0.5 draw,
// 0 home loss.
func (e Event) Outcome() float64 {
	switch e.Result() {
	case ResultHomeWin:
		return 1.0
	case ResultDraw:
		return 0.5
	default:
		return 0.0
	}
}

// HomePoints and AwayPoints are league points earned by each side.
func (e Event) HomePoints() int {
	switch e.Result() {
	case ResultHomeWin:
		return 3
	case ResultDraw:
		return 1
	default:
		return 0
	}
}

func (e Event) AwayPoints() int {
	switch e.Result() {
	case ResultAwayWin:
		return 3
	case ResultDraw:
		return 1
	default:
		return 0
	}
}

// Before orders events by date ascending with the composite key as the stable
// tie-breaker, so replay over equal dates stays deterministic.
func (e Event) Before(other Event) bool {
	if !e.Date.Equal(other.Date) {
		return e.Date.Before(other.Date)
	}
	return e.Key < other.Key
}

// SortChronological sorts events in place into canonical replay order.
func SortChronological(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Before(events[j])
	})
}

// IsChronological reports whether events already satisfy replay order.
func IsChronological(events []Event) bool {
	for i := 1; i < len(events); i++ {
		if events[i].Before(events[i-1]) {
			return false
		}
	}
	return true
}
