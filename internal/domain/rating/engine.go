package rating

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pitchside/prediction-engine/internal/domain/match"
)

const (
	// DefaultRating is the cold-start rating for a team with no history.
	DefaultRating = 1500.0
	// DefaultKFactor controls how far one result can move a rating.
	DefaultKFactor = 20.0
)

// ErrReplayOrder reports an event presented out of chronological order. This
// is a contract violation: accepting it would silently corrupt every rating
// derived afterwards, so callers must treat it as fatal.
var ErrReplayOrder = errors.New("event out of replay order")

// State is one team's rating plus the moment it last changed.
type State struct {
	Rating    float64
	UpdatedAt time.Time
}

// Book holds every team's rating state. It is owned by the replay
// orchestrator and mutated only through ApplyEvent, strictly in event order.
type Book struct {
	kFactor float64
	states  map[string]State

	lastDate time.Time
	lastKey  string
	applied  int
}

func NewBook(kFactor float64) *Book {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	return &Book{
		kFactor: kFactor,
		states:  make(map[string]State, 64),
	}
}

// RatingAsOf returns the rating immediately preceding the given event, never
// the value that event itself produces. The book only ever holds pre-event
// state for the next event in order, so this is the current rating as long as
// the caller queries before applying; querying at or behind the replay cursor
// is the ordering bug ApplyEvent exists to reject, and that includes asking
// about an event the book has already consumed. An unseen team is a
// legitimate cold-start and yields DefaultRating, not an error.
func (b *Book) RatingAsOf(teamKey string, before match.Event) (float64, error) {
	if b.applied > 0 && before.Date.Before(b.lastDate) {
		return 0, fmt.Errorf("%w: as-of query for %s dated %s but book already advanced to %s",
			ErrReplayOrder, before.Key, before.Date.Format("2006-01-02"), b.lastDate.Format("2006-01-02"))
	}
	if b.applied > 0 && before.Date.Equal(b.lastDate) && before.Key <= b.lastKey {
		return 0, fmt.Errorf("%w: as-of query for %s but book already applied %s on the same date",
			ErrReplayOrder, before.Key, b.lastKey)
	}
	state, ok := b.states[teamKey]
	if !ok {
		return DefaultRating, nil
	}
	return state.Rating, nil
}

// Rating returns the current rating, DefaultRating for unseen teams.
func (b *Book) Rating(teamKey string) float64 {
	if state, ok := b.states[teamKey]; ok {
		return state.Rating
	}
	return DefaultRating
}

// ApplyEvent advances both sides' ratings and returns the pre-update values
// used for featurization. The zero-sum invariant holds exactly: the update
// moves points from one side to the other.
func (b *Book) ApplyEvent(event match.Event) (homeBefore, awayBefore float64, err error) {
	if err := b.checkOrder(event); err != nil {
		return 0, 0, err
	}

	homeBefore = b.Rating(event.HomeTeam)
	awayBefore = b.Rating(event.AwayTeam)

	actual := event.Outcome()
	expectedHome := ExpectedScore(homeBefore, awayBefore)

	homeAfter := homeBefore + b.kFactor*(actual-expectedHome)
	awayAfter := awayBefore + b.kFactor*((1-actual)-(1-expectedHome))

	b.states[event.HomeTeam] = State{Rating: homeAfter, UpdatedAt: event.Date}
	b.states[event.AwayTeam] = State{Rating: awayAfter, UpdatedAt: event.Date}
	b.lastDate = event.Date
	b.lastKey = event.Key
	b.applied++

	return homeBefore, awayBefore, nil
}

func (b *Book) checkOrder(event match.Event) error {
	if b.applied == 0 {
		return nil
	}
	if event.Date.Before(b.lastDate) {
		return fmt.Errorf("%w: event %s dated %s arrived after %s dated %s",
			ErrReplayOrder, event.Key, event.Date.Format("2006-01-02"), b.lastKey, b.lastDate.Format("2006-01-02"))
	}
	if event.Date.Equal(b.lastDate) && event.Key < b.lastKey {
		return fmt.Errorf("%w: event %s breaks the same-date tie-break after %s", ErrReplayOrder, event.Key, b.lastKey)
	}
	return nil
}

// ExpectedScore is the logistic expectation of the home result given both
// ratings.
func ExpectedScore(home, away float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (away-home)/400.0))
}

// Applied reports how many events the book has consumed.
func (b *Book) Applied() int {
	return b.applied
}

// States returns a copy of the full rating table for snapshots/checkpoints.
func (b *Book) States() map[string]State {
	out := make(map[string]State, len(b.states))
	for key, state := range b.states {
		out[key] = state
	}
	return out
}

// Restore rebuilds a book from checkpointed state. Replay from a restored
// book must be provably equivalent to a full replay.
func Restore(kFactor float64, states map[string]State, lastDate time.Time, lastKey string, applied int) *Book {
	book := NewBook(kFactor)
	for key, state := range states {
		book.states[key] = state
	}
	book.lastDate = lastDate
	book.lastKey = lastKey
	book.applied = applied
	return book
}

// LastApplied exposes the replay cursor for checkpointing.
func (b *Book) LastApplied() (time.Time, string) {
	return b.lastDate, b.lastKey
}
