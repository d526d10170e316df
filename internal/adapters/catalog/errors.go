package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound    = errors.New("content not found")
	ErrInvalidItem = errors.New("content item has no id")
)
