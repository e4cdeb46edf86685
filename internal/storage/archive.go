package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Archive stores export payloads of finished jobs under dated keys.
type Archive struct {
	store  ObjectStore
	prefix string
	now    func() time.Time
}

// ArchivedExport identifies one stored export.
type ArchivedExport struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// NewArchive creates an archive writing under prefix in store.
func NewArchive(store ObjectStore, prefix string) *Archive {
	return &Archive{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Key returns the object key for a job's export with the given extension.
// Keys look like <prefix>/2024/03/01/<jobID>.csv.
func (a *Archive) Key(jobID, ext string) string {
	day := a.now().UTC().Format("2006/01/02")
	return path.Join(a.prefix, day, jobID+"."+ext)
}

// Save uploads data for jobID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job identifier used in the key.
//   - ext: file extension without the dot.
//   - contentType: MIME type of data.
//   - data: export payload.
//
// Returns:
//   - *ArchivedExport: key and URL of the stored object.
//   - error: non-nil if the upload fails.
func (a *Archive) Save(ctx context.Context, jobID, ext, contentType string, data []byte) (*ArchivedExport, error) {
	key := a.Key(jobID, ext)
	if err := a.store.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to archive export %s: %w", key, err)
	}
	return &ArchivedExport{Key: key, URL: a.store.URL(key)}, nil
}

// Load reads an archived export back.
func (a *Archive) Load(ctx context.Context, key string) ([]byte, error) {
	ok, err := a.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("archived export %s not found", key)
	}
	return a.store.Get(ctx, key)
}
