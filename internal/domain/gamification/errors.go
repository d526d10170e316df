package gamification

import "errors"

// Sentinel kinds for gamification errors.
var (
	ErrInvalidAmount = errors.New("xp amount must be a positive finite number")
	ErrEmptyAction   = errors.New("achievement action is empty")
)
