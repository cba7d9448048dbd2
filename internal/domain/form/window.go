package form

import (
	"time"

	"github.com/pitchside/prediction-engine/internal/domain/match"
)

const (
	// DefaultWindowSize bounds the trailing per-team history.
	DefaultWindowSize = 5
	// DefaultMinSamples is the sufficiency floor below which a snapshot
	// cannot back a feature row.
	DefaultMinSamples = 3
)

// Entry is one finished match from a single team's perspective. Home and away
// appearances fold into the same sequence: form tracks games played, not
// venue. Optional metrics stay nil when the source never provided them.
type Entry struct {
	Date         time.Time
	MatchKey     string
	GoalsFor     int
	GoalsAgainst int
	Points       int
	XG           *float64
	PPDA         *float64
	Deep         *float64
}

// Snapshot is the windowed mean of each tracked metric strictly before some
// event, plus how many entries actually backed it.
type Snapshot struct {
	Games        int
	GoalsFor     float64
	GoalsAgainst float64
	Points       float64
	XG           Mean
	PPDA         Mean
	Deep         Mean
	RestDays     float64
	Sufficient   bool
}

// Mean is an average over however many entries carried the metric. Count is
// kept separate so consumers can distinguish "no data" from "averages to
// zero".
type Mean struct {
	Value float64
	Count int
}

// Book maintains every team's trailing window. Entries are appended only
// after a match's outcome is known, in event order, by the replay
// orchestrator.
type Book struct {
	windowSize int
	minSamples int
	entries    map[string][]Entry
}

func NewBook(windowSize, minSamples int) *Book {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if minSamples > windowSize {
		minSamples = windowSize
	}
	return &Book{
		windowSize: windowSize,
		minSamples: minSamples,
		entries:    make(map[string][]Entry, 64),
	}
}

// SnapshotBefore aggregates the up-to-N most recent entries strictly before
// the event's date. The event being featurized never contributes to its own
// snapshot. RestDays falls back to a week for a team's debut.
func (b *Book) SnapshotBefore(teamKey string, before match.Event) Snapshot {
	history := b.entries[teamKey]

	eligible := history[:0:0]
	for _, entry := range history {
		if entry.Date.Before(before.Date) {
			eligible = append(eligible, entry)
		}
	}
	if len(eligible) > b.windowSize {
		eligible = eligible[len(eligible)-b.windowSize:]
	}

	snapshot := Snapshot{Games: len(eligible), RestDays: 7.0}
	if len(eligible) == 0 {
		return snapshot
	}

	var goalsFor, goalsAgainst, points float64
	for _, entry := range eligible {
		goalsFor += float64(entry.GoalsFor)
		goalsAgainst += float64(entry.GoalsAgainst)
		points += float64(entry.Points)
		snapshot.XG.add(entry.XG)
		snapshot.PPDA.add(entry.PPDA)
		snapshot.Deep.add(entry.Deep)
	}

	games := float64(len(eligible))
	snapshot.GoalsFor = goalsFor / games
	snapshot.GoalsAgainst = goalsAgainst / games
	snapshot.Points = points / games
	snapshot.XG.finish()
	snapshot.PPDA.finish()
	snapshot.Deep.finish()

	last := eligible[len(eligible)-1]
	snapshot.RestDays = before.Date.Sub(last.Date).Hours() / 24.0
	snapshot.Sufficient = len(eligible) >= b.minSamples

	return snapshot
}

// Append records one finished match for a team. Callers must only append
// after the corresponding feature row has been assembled.
func (b *Book) Append(teamKey string, entry Entry) {
	history := append(b.entries[teamKey], entry)
	// Keep a little more than the window so SnapshotBefore can still skip
	// same-date entries without starving the window.
	if maxKeep := b.windowSize * 2; len(history) > maxKeep {
		history = history[len(history)-maxKeep:]
	}
	b.entries[teamKey] = history
}

// AppendEvent folds one canonical event into both participants' sequences.
func (b *Book) AppendEvent(event match.Event) {
	b.Append(event.HomeTeam, Entry{
		Date:         event.Date,
		MatchKey:     event.Key,
		GoalsFor:     event.HomeGoals,
		GoalsAgainst: event.AwayGoals,
		Points:       event.HomePoints(),
		XG:           event.HomeXG,
		PPDA:         event.HomeTactical.PPDA,
		Deep:         event.HomeTactical.Deep,
	})
	b.Append(event.AwayTeam, Entry{
		Date:         event.Date,
		MatchKey:     event.Key,
		GoalsFor:     event.AwayGoals,
		GoalsAgainst: event.HomeGoals,
		Points:       event.AwayPoints(),
		XG:           event.AwayXG,
		PPDA:         event.AwayTactical.PPDA,
		Deep:         event.AwayTactical.Deep,
	})
}

// MinSamples exposes the sufficiency floor for consumers reporting exclusions.
func (b *Book) MinSamples() int {
	return b.minSamples
}

// Entries returns a copy of one team's stored sequence, oldest first.
func (b *Book) Entries(teamKey string) []Entry {
	history := b.entries[teamKey]
	out := make([]Entry, len(history))
	copy(out, history)
	return out
}

// All returns a copy of the whole book for checkpoints.
func (b *Book) All() map[string][]Entry {
	out := make(map[string][]Entry, len(b.entries))
	for key, history := range b.entries {
		cloned := make([]Entry, len(history))
		copy(cloned, history)
		out[key] = cloned
	}
	return out
}

// Restore rebuilds a book from checkpointed entries.
func Restore(windowSize, minSamples int, entries map[string][]Entry) *Book {
	book := NewBook(windowSize, minSamples)
	for key, history := range entries {
		cloned := make([]Entry, len(history))
		copy(cloned, history)
		book.entries[key] = cloned
	}
	return book
}

func (m *Mean) add(value *float64) {
	if value == nil {
		return
	}
	m.Value += *value
	m.Count++
}

func (m *Mean) finish() {
	if m.Count > 0 {
		m.Value /= float64(m.Count)
	}
}
