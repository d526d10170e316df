package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("user not on leaderboard")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidBoard = errors.New("unknown leaderboard")
	ErrMissingUser  = errors.New("leaderboard entry has no user id")
)
