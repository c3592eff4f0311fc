package service

import "errors"

// Sentinel kinds for orchestrator errors. All are local, synchronous and
// non-fatal; the caller translates them at its own boundary.
var (
	ErrNotInitialized     = errors.New("orchestrator not initialized")
	ErrAlreadyInitialized = errors.New("orchestrator already initialized")
	ErrEmptyCatalog       = errors.New("arm catalog is empty")
	ErrOutcomeNotFound    = errors.New("outcome not found")
	ErrAlreadyResolved    = errors.New("outcome already resolved")
	ErrArmNotFound        = errors.New("arm not found")
)
