package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// ErrNotFound states that a record does not exist in the store; a record
// owned by another principal is reported the same way by the owner-filtered
// lookups. For validation failures use pkg/domain-errors directly.
var ErrNotFound = errors.New("not found")
