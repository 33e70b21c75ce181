// Package cache provides the TTL cache the aviationstack gateway wraps
// around every upstream call. Values are opaque byte slices; callers own
// the (un)marshaling. Two backends exist: an in-memory map for the default
// single-process deployment, and Redis for deployments that already run one.
package cache

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Store is the freshness authority for cached upstream responses. There is
// deliberately no second caching layer anywhere else in the application.
type Store interface {
	// Get returns the stored value and true while the entry is fresh.
	// An expired or missing entry yields (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value with the given TTL, replacing any previous entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has reports whether a fresh entry exists for key.
	Has(ctx context.Context, key string) (bool, error)
	// Delete removes the entry for key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every entry whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Clear drops all entries.
	Clear(ctx context.Context) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// Key builds a deterministic cache key from an operation prefix and the
// query parameters: the pairs are sorted by name so that semantically
// identical queries collide to the same key regardless of insertion order.
func Key(prefix string, params map[string]string) string {
	if len(params) == 0 {
		return prefix
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}
