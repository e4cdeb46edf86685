package storage

import "context"

// ObjectStore is the minimal object storage surface the export archive needs.
type ObjectStore interface {
	// Put writes body under key, replacing any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string) error

	// Get reads the whole object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// URL returns the address clients can fetch key from.
	URL(key string) string

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
