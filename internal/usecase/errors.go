package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrMalformedRecord marks a raw record missing required fields. The
	// record is skipped and counted, never fatal to a batch.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnresolvedIdentity marks a team name that could not be matched or
	// registered. The record is skipped.
	ErrUnresolvedIdentity = errors.New("unresolved team identity")
	// ErrInsufficientHistory marks a match whose feature row was excluded
	// because a side lacked enough form-window entries.
	ErrInsufficientHistory = errors.New("insufficient form history")
	// ErrConnectorUnavailable marks an ingestion source that failed after
	// exhausting its retries. The run continues with existing data.
	ErrConnectorUnavailable = errors.New("connector unavailable")
)
