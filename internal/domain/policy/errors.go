package policy

import "errors"

// Sentinel kinds for selection errors.
var (
	ErrNoActiveArms = errors.New("no active arms")
)
