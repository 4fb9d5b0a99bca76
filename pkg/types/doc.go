// Package types defines shared domain types for the vueon search engine.
//
// Types in this package are used across package boundaries (core engine,
// video store, HTTP layer) and deliberately carry no behavior beyond
// validation. The error variables form the engine's error taxonomy; callers
// classify failures with errors.Is rather than string matching.
package types
