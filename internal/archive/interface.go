// Package archive persists analysed chart images and their results.
package archive

import "context"

// Store is a flat key/value blob store. Keys use forward slashes.
type Store interface {
	// Put stores data under key.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get retrieves the data stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys with the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Exists checks if key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
