// Package history keeps the in-memory log of job attempts, newest first.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/tabextract/internal/domain"
)

// Log is an append-front, in-memory job history. It is safe for
// concurrent use; entries are never mutated once recorded.
type Log struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	now     func() time.Time
}

// New creates an empty history log.
func New() *Log {
	return &Log{now: time.Now}
}

// Record prepends a new entry and returns it.
// Parameters:
//   - source: where the job's inputs came from.
//   - model: model identifier used for the job.
//   - status: terminal status of the attempt.
//   - result: combined result, nil for failed jobs.
//
// Returns:
//   - domain.HistoryEntry: the recorded entry.
func (l *Log) Record(source domain.SourceKind, model string, status domain.HistoryStatus, result *domain.CombinedResult) domain.HistoryEntry {
	entry := domain.HistoryEntry{
		ID:        uuid.New().String(),
		Source:    source,
		Model:     model,
		Status:    status,
		Timestamp: l.now(),
		Result:    result,
	}
	if status == domain.HistoryFailed {
		entry.Result = nil
	}

	l.mu.Lock()
	l.entries = append([]domain.HistoryEntry{entry}, l.entries...)
	l.mu.Unlock()
	return entry
}

// List returns a snapshot of every entry, most recent first.
func (l *Log) List() []domain.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Get returns the entry with the given id.
func (l *Log) Get(id string) (domain.HistoryEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.HistoryEntry{}, domain.ErrHistoryEntryNotFound
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
