// Package cache stores parsed import specifiers keyed by file content.
//
// Parsing a source file with tree-sitter is the most expensive step of a
// dependency build, and the result depends only on the file's bytes and its
// language. The cache therefore maps a content hash to the encoded specifier
// list so unchanged files are never parsed twice across runs.
//
// Three backends implement [Cache]:
//   - [FileCache]: sharded JSON files under the user cache directory (CLI default)
//   - [RedisCache]: a shared Redis instance, useful for CI runners
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long parsed specifiers stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	// Expired and corrupt entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
