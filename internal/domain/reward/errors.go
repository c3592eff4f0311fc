package reward

import "errors"

// Sentinel kinds for reward resolution errors.
var (
	ErrInvalidRewardInput = errors.New("invalid reward input")
)
