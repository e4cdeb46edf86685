// Package staging reads a prepared batch directory: a manifest.jsonl
// listing documents in the order they should be processed, next to a
// files/ directory holding them.
package staging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/source"
)

const (
	// ManifestFileName is the JSONL manifest file name in a staging directory.
	ManifestFileName = "manifest.jsonl"
	// FilesDir holds the documents listed in the manifest.
	FilesDir = "files"
)

// ManifestItem is one line of manifest.jsonl.
type ManifestItem struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
}

// Adapter implements source.Source for a staging directory.
type Adapter struct {
	dir      string
	maxBytes int64
}

// NewAdapter creates a staging adapter.
// Parameters:
//   - dir: staging directory containing manifest.jsonl.
//   - maxBytes: payloads above this size are not loaded.
//
// Returns:
//   - *Adapter: adapter bound to dir.
func NewAdapter(dir string, maxBytes int64) *Adapter {
	return &Adapter{dir: dir, maxBytes: maxBytes}
}

// ID returns the source identifier.
func (a *Adapter) ID() string {
	return "staging:" + filepath.Base(a.dir)
}

// Collect reads the manifest and loads each listed file. Malformed lines
// and entries whose file is missing are skipped with a warning.
func (a *Adapter) Collect(ctx context.Context) ([]domain.InputUnit, error) {
	manifestPath := filepath.Join(a.dir, ManifestFileName)
	file, err := os.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var units []domain.InputUnit
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item ManifestItem
		if err := json.Unmarshal([]byte(line), &item); err != nil || item.Filename == "" {
			logger.CtxWarn(ctx, "Skipping malformed manifest line %d", lineNo)
			continue
		}

		path := filepath.Join(a.dir, FilesDir, filepath.Base(item.Filename))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.CtxWarn(ctx, "Skipping %s: file not found", item.Filename)
			continue
		}

		unit, err := source.ReadCandidate(path, filepath.Base(item.Filename), a.maxBytes)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	return units, nil
}

var _ source.Source = (*Adapter)(nil)

// IsStagingDir reports whether dir contains a manifest.
func IsStagingDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestFileName))
	return err == nil
}
