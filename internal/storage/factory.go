package storage

import "strings"

// NewStore creates an ObjectStore for cfg.
// Parameters:
//   - cfg: storage configuration including endpoint, credentials, and bucket.
//
// Returns:
//   - *S3Store: S3-compatible store; the provider is detected from the endpoint when Type is empty.
//   - error: non-nil if the client cannot be created.
func NewStore(cfg *S3Config) (*S3Store, error) {
	if cfg.Type == "" {
		cfg.Type = detectStorageType(cfg.Endpoint)
	}
	return NewS3Store(cfg)
}

// detectStorageType guesses the provider from the endpoint host.
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
