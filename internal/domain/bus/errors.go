package bus

import "errors"

// Sentinel kinds for bus errors.
var (
	ErrHandlerPanic = errors.New("bus handler panicked")
	ErrClosed       = errors.New("bus closed")
)
