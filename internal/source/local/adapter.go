// Package local collects candidates from file and directory paths given
// on the command line.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/source"
)

// Adapter implements source.Source over a list of paths. Directories are
// expanded one level deep in name order.
type Adapter struct {
	paths    []string
	maxBytes int64
}

var _ source.Source = (*Adapter)(nil)

// NewAdapter creates a local path adapter.
func NewAdapter(paths []string, maxBytes int64) *Adapter {
	return &Adapter{paths: paths, maxBytes: maxBytes}
}

// ID returns the source identifier.
func (a *Adapter) ID() string {
	return "local"
}

// Collect returns one candidate per file in argument order.
func (a *Adapter) Collect(ctx context.Context) ([]domain.InputUnit, error) {
	var units []domain.InputUnit
	for _, p := range a.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			u, err := source.ReadCandidate(p, filepath.Base(p), a.maxBytes)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			u, err := source.ReadCandidate(filepath.Join(p, e.Name()), e.Name(), a.maxBytes)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
		}
	}
	return units, nil
}
