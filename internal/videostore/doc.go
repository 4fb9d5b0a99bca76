// Package videostore reads video metadata from the SQLite catalog that
// backs the rest of the platform. It is the search engine's outbound
// boundary: rows come out as pkg/types.Video values with the tags column
// already parsed from its wire format.
//
// Two SQLite drivers are supported through build tags. The default build
// uses github.com/mattn/go-sqlite3 (CGO); building with -tags purego
// swaps in modernc.org/sqlite for CGO-free cross compilation.
package videostore
