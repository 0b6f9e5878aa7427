package ingest

import "errors"

// Sentinel errors for the ingestion pipeline.
var (
	// ErrValidation marks payloads rejected at the producer boundary.
	// They never reach the log.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicate is returned by Store implementations when a create
	// hits a uniqueness constraint. The consumer acknowledges the
	// record without creating a second row.
	ErrDuplicate = errors.New("entity already exists")
)
