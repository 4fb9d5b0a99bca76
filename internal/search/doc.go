// Package search provides the search service facade: it coordinates the
// text encoder, the embedding index and the video source behind a small
// API of rebuild and query operations.
//
// The service has an explicit lifecycle. New wires the collaborators
// without doing I/O; Initialize loads the persisted index and moves the
// service to the ready state. Every operation checks the state first and
// returns types.ErrNotReady when called too early.
//
// Rebuilds run in batches: each batch encodes its videos concurrently,
// individual failures are logged and counted without aborting the run,
// and the index is flushed to disk on a configurable interval so a crash
// loses at most the unflushed batches.
package search
