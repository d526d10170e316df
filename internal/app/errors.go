package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrMissingUser  = errors.New("missing user id")
	ErrBackpressure = errors.New("backpressure")
	ErrUnknownTopic = errors.New("unknown signal topic")
)
