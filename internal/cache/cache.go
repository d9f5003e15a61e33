// Package cache provides the byte-oriented key-value store used to persist
// wrapped summaries and generated insights. The store is unaware of payload
// structure: callers hand it opaque bytes under deterministic keys.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Get when no entry exists for the key
var ErrNotFound = errors.New("cache: key not found")

// Store is the pluggable persistence backend. Implementations must be safe
// for concurrent use and must write atomically: a concurrent reader never
// observes a partially written payload. Entries have no implicit expiry.
type Store interface {
	// Get retrieves the payload stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the payload under key, replacing any previous value whole
	Put(ctx context.Context, key string, data []byte) error

	// Exists reports whether an entry is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the entry under key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases backend resources
	Close() error
}

// Cache namespaces. Keys from different namespaces never collide.
const (
	NamespaceWrapped  = "wrapped"
	NamespaceInsights = "insights"
)

// Key derives the deterministic storage key for one (namespace, user, year)
// triple. The user identifier is path-escaped so distinct users can never
// map to the same key.
func Key(namespace, userID string, year int) string {
	escaped := url.PathEscape(strings.ToLower(userID))
	return fmt.Sprintf("%s/%s/%d.json", namespace, escaped, year)
}

// Backend names accepted by Open
const (
	BackendLocal = "local"
	BackendNATS  = "nats"
)

// Options selects and configures the storage backend. The choice is made
// once at process start, not per request.
type Options struct {
	Backend string

	// Local filesystem backend
	Dir string

	// NATS object store backend
	NATSURL string
	Bucket  string
}

// Open creates the configured Store
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendLocal:
		return NewFileStore(opts.Dir)
	case BackendNATS:
		return NewObjectStore(ctx, opts.NATSURL, opts.Bucket)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
