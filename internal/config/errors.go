package config

import "errors"

var (
	// ErrInvalidConfig marks a configuration that loaded but cannot run.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrConfigSource marks a file or environment source that failed to parse.
	ErrConfigSource = errors.New("config source unreadable")
)
