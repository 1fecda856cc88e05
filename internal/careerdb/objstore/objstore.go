package objstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// Client is the minimal object store surface the sync protocol needs.
//
// Implementations must make Put atomic per object: a reader must never
// observe a half-written value. Delete must be idempotent - deleting a
// missing key is not an error.
type Client interface {
	// Exists reports whether the key is present in the store.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the full content stored under key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous content entirely.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
