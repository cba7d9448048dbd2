package match

import (
	"testing"
	"time"
)

func TestCompositeKey(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	got := CompositeKey(date, "arsenal", "chelsea")
	if got != "2025-08-16-arsenal-chelsea" {
		t.Fatalf("CompositeKey = %q", got)
	}

	// The key is date-stable regardless of kickoff timezone.
	local := date.In(time.FixedZone("CET", 3600))
	if CompositeKey(local, "arsenal", "chelsea") != got {
		t.Fatal("expected timezone-independent key")
	}
}

func TestResultAndPoints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		home, away int
		result     int
		outcome    float64
		hp, ap     int
	}{
		{"home win", 2, 0, ResultHomeWin, 1.0, 3, 0},
		{"draw", 1, 1, ResultDraw, 0.5, 1, 1},
		{"away win", 0, 3, ResultAwayWin, 0.0, 0, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := Event{HomeGoals: tc.home, AwayGoals: tc.away}
			if e.Result() != tc.result {
				t.Errorf("Result() = %d, want %d", e.Result(), tc.result)
			}
			if e.Outcome() != tc.outcome {
				t.Errorf("Outcome() = %v, want %v", e.Outcome(), tc.outcome)
			}
			if e.HomePoints() != tc.hp || e.AwayPoints() != tc.ap {
				t.Errorf("points = (%d, %d), want (%d, %d)", e.HomePoints(), e.AwayPoints(), tc.hp, tc.ap)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	valid := Event{
		Key:      CompositeKey(date, "arsenal", "chelsea"),
		Date:     date,
		HomeTeam: "arsenal",
		AwayTeam: "chelsea",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Event)
	}{
		{"missing key", func(e *Event) { e.Key = "" }},
		{"zero date", func(e *Event) { e.Date = time.Time{} }},
		{"missing home team", func(e *Event) { e.HomeTeam = "" }},
		{"negative goals", func(e *Event) { e.HomeGoals = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSortChronological(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 8, 8, 15, 0, 0, 0, time.UTC)
	events := []Event{
		{Key: "b", Date: d2},
		{Key: "c", Date: d1},
		{Key: "a", Date: d1},
	}

	SortChronological(events)

	want := []string{"a", "c", "b"}
	for i, key := range want {
		if events[i].Key != key {
			t.Fatalf("order = [%s %s %s], want %v", events[0].Key, events[1].Key, events[2].Key, want)
		}
	}
	if !IsChronological(events) {
		t.Fatal("expected sorted events to be chronological")
	}
}
