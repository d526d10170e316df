package broker

import "errors"

var (
	// ErrClosed is returned when publishing on a closed broker.
	ErrClosed = errors.New("broker closed")
	// ErrFull is returned when the shard queue for a topic is full.
	ErrFull = errors.New("shard queue full")
)
