// Package api exposes the search service over HTTP: reindex triggers,
// semantic queries, hybrid queries and a stats snapshot, all JSON. Errors
// map sentinel values onto status codes (empty query or unknown sort 400,
// missing video 404, service not ready 503, everything else 500) with a
// uniform error envelope.
package api
