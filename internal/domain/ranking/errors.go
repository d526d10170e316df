package ranking

import "errors"

// ErrUnrankable marks an item that must not be ranked against itself.
var ErrUnrankable = errors.New("item is unrankable")
