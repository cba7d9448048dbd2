package memory

import (
	"context"
	"sync"

	"github.com/pitchside/prediction-engine/internal/domain/feature"
)

type FeatureRepository struct {
	mu      sync.RWMutex
	vectors []feature.Vector
}

func NewFeatureRepository() *FeatureRepository {
	return &FeatureRepository{}
}

func (r *FeatureRepository) ReplaceAll(_ context.Context, vectors []feature.Vector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vectors = append(r.vectors[:0:0], vectors...)
	return nil
}

func (r *FeatureRepository) List(_ context.Context) ([]feature.Vector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]feature.Vector, len(r.vectors))
	copy(out, r.vectors)
	return out, nil
}
