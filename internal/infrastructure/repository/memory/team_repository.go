package memory

import (
	"context"
	"sync"

	"github.com/pitchside/prediction-engine/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	byKey map[string]team.Identity
	order []string
}

func NewTeamRepository(identities []team.Identity) *TeamRepository {
	repo := &TeamRepository{byKey: make(map[string]team.Identity, len(identities))}
	for _, identity := range identities {
		if _, exists := repo.byKey[identity.Key]; !exists {
			repo.order = append(repo.order, identity.Key)
		}
		repo.byKey[identity.Key] = cloneIdentity(identity)
	}
	return repo
}

func (r *TeamRepository) List(_ context.Context) ([]team.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Identity, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, cloneIdentity(r.byKey[key]))
	}
	return out, nil
}

func (r *TeamRepository) UpsertMany(_ context.Context, identities []team.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, identity := range identities {
		if identity.Key == "" {
			continue
		}
		if _, exists := r.byKey[identity.Key]; !exists {
			r.order = append(r.order, identity.Key)
		}
		r.byKey[identity.Key] = cloneIdentity(identity)
	}
	return nil
}

func cloneIdentity(identity team.Identity) team.Identity {
	cloned := identity
	cloned.Aliases = make(map[string]struct{}, len(identity.Aliases))
	for alias := range identity.Aliases {
		cloned.Aliases[alias] = struct{}{}
	}
	return cloned
}
