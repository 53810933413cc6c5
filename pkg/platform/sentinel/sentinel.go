package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors without
// knowing which backend produced them.
//
// These represent factual states about stored resources:
// - ErrNotFound: entity does not exist in the store
// - ErrAlreadyUsed: a unique value (e.g. email) is already taken
// - ErrInvalidState: entity is in the wrong state for the requested mutation
// - ErrConflict: concurrent update lost the race
// - ErrUnavailable: backend temporarily unreachable
//
// For validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)
