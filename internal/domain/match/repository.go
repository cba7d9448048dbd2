package match

import "context"

// Repository is the staging store boundary for canonical events.
type Repository interface {
	ListChronological(ctx context.Context) ([]Event, error)
	UpsertMany(ctx context.Context, events []Event) error
}
