package memory

import (
	"context"
	"sync"

	"github.com/pitchside/prediction-engine/internal/domain/match"
)

type MatchRepository struct {
	mu     sync.RWMutex
	events map[string]match.Event
}

func NewMatchRepository(events []match.Event) *MatchRepository {
	repo := &MatchRepository{events: make(map[string]match.Event, len(events))}
	for _, event := range events {
		repo.events[event.Key] = event
	}
	return repo
}

func (r *MatchRepository) ListChronological(_ context.Context) ([]match.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Event, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event)
	}
	match.SortChronological(out)
	return out, nil
}

func (r *MatchRepository) UpsertMany(_ context.Context, events []match.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range events {
		if event.Key == "" {
			continue
		}
		r.events[event.Key] = event
	}
	return nil
}
