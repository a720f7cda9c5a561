// Package kv defines the key-value store contract the recipe repository is
// built on, plus the redis, postgres and in-memory backends.
package kv

import (
	"context"
	"encoding/json"
)

// Store is a mapping from string key to a JSON document.
//
// Get, Set and Delete are read-your-own-writes for the same key. ScanPrefix
// reflects writes that completed before the scan began; writes concurrent
// with a scan may or may not be observed. Scan order is unspecified.
type Store interface {
	// Get returns the value at key. A missing key is not an error; it is
	// reported through the second return value.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set upserts the value at key.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes the key if present. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// ScanPrefix returns the values of all keys starting with prefix.
	ScanPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
}
