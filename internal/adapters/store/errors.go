package store

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrUnavailable = errors.New("store unavailable")
)
