package types

import "errors"

// Engine error taxonomy. Batch operations log and continue past per-item
// errors; single-item operations surface the first error to the caller.
var (
	// ErrEmptyQuery indicates a search was requested with a blank query.
	// Client error, surfaced before any encoder work happens.
	ErrEmptyQuery = errors.New("search query cannot be empty")

	// ErrDocumentBuild indicates malformed video metadata, such as an
	// unparsable tags serialization.
	ErrDocumentBuild = errors.New("malformed video metadata")

	// ErrEncoding indicates the text encoder failed or timed out.
	// Retryable at the caller's discretion.
	ErrEncoding = errors.New("text encoding failed")

	// ErrIndexIO indicates the embedding index could not be persisted.
	// Previously saved state is never corrupted by a failed save.
	ErrIndexIO = errors.New("embedding index storage failure")

	// ErrNotFound indicates the requested video does not exist.
	ErrNotFound = errors.New("video not found")

	// ErrDimensionMismatch indicates an embedding whose length differs
	// from the index's established dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotReady indicates an operation was attempted before the search
	// service finished initializing.
	ErrNotReady = errors.New("search service not initialized")

	// ErrInvalidSort indicates an unknown sort order was requested.
	ErrInvalidSort = errors.New("unknown sort order")
)
