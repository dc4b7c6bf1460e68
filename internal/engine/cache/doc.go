// Package cache provides file-based caching with TTL expiration.
//
// apreboot uses it to remember the venue ID to venue name mapping fetched
// during export. When the venue listing fails on a later run, the last
// mapping still within its TTL is used instead of labelling every access
// point "Unknown". Entries are JSON files under ~/.apreboot/cache/ written
// atomically (temp file + rename); keys are SHA256 digests of the tenant and
// region so credentials never appear in file names.
package cache
