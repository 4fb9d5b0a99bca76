// Package index implements the persistent embedding index: a map from
// video ID to embedding record, held in memory and flushed to a single
// JSON file with atomic whole-file replacement.
package index
