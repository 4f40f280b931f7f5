package app

import "errors"

// Sentinel kinds for engine errors.
var (
	// ErrInvalidChoice means the chosen item is neither side of the pair
	// nor the tie sentinel. A client input error; nothing was recorded.
	ErrInvalidChoice = errors.New("chosen item must be one of the pair or a tie")

	// ErrUnknownDimension means the dimension is not configured.
	ErrUnknownDimension = errors.New("unknown dimension")

	// ErrRecomputeFailed means the comparison was durably recorded but the
	// downstream score/ranking recompute failed. The comparison is never
	// rolled back; a resync retries the recompute, which is idempotent.
	ErrRecomputeFailed = errors.New("recompute failed")

	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")
)
