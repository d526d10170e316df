package interest

import "errors"

// Sentinel kinds for interest errors.
var (
	ErrUnknownInteraction = errors.New("unknown interaction type")
)
