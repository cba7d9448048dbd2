package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Identity, error)
	UpsertMany(ctx context.Context, identities []Identity) error
}
