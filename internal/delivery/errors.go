package delivery

import "errors"

// Sentinel errors for the delivery pipeline.
var (
	// ErrSegmentNotFound is returned when dispatching against an
	// unknown segment id.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrLogNotFound is returned when recording an outcome for a
	// communication log row that does not exist.
	ErrLogNotFound = errors.New("communication log not found")

	// ErrAlreadyRecorded is returned when an outcome write finds the
	// row no longer in QUEUED state. Redelivered tasks hit this and
	// treat it as success.
	ErrAlreadyRecorded = errors.New("delivery outcome already recorded")
)
