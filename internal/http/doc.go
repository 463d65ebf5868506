// Package http exposes the read-only query surface over the tracer and
// validator: paginated chain listing, fetch-by-any-contained-id,
// validation, statistics, layer queries, path-to-root, chain export,
// the enable/disable toggle, and clear-all.
//
// The query layer never mutates chains; every chain it serves is a deep
// copy taken under the tracer's lock.
package http
