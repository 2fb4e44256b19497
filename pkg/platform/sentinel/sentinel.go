package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors:
//   - ErrNotFound: row or slot does not exist
//   - ErrConflict: unique key already taken (empkey, history id)
//   - ErrInvalidState: entity in the wrong state for the requested transition
//   - ErrUnavailable: backend temporarily unreachable
//
// For validation errors (bad input, unresolvable RUT), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
