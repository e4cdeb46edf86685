// Package session owns the per-process user state: job history, the last
// successful result and the single-job guard.
package session

import (
	"sync"

	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/history"
)

// Progress is a snapshot of the running job.
type Progress struct {
	Running   bool   `json:"running"`
	JobID     string `json:"job_id,omitempty"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// Session holds the state shared by the job service and the HTTP
// handlers. Build one per process and pass it explicitly.
type Session struct {
	history *history.Log

	mu       sync.RWMutex
	running  bool
	progress Progress
	last     *domain.CombinedResult
}

// New creates a session with an empty history.
func New() *Session {
	return &Session{history: history.New()}
}

// History returns the session's job history log.
func (s *Session) History() *history.Log {
	return s.history
}

// Begin marks a job as running.
// Returns domain.ErrJobRunning if another job is active.
func (s *Session) Begin(jobID string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return domain.ErrJobRunning
	}
	s.running = true
	s.progress = Progress{Running: true, JobID: jobID, Total: total}
	return nil
}

// Advance records how many units of the running job have been processed.
func (s *Session) Advance(processed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.progress.Processed = processed
	s.progress.Total = total
}

// End clears the running flag. A non-nil result replaces the last result.
func (s *Session) End(result *domain.CombinedResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.progress = Progress{}
	if result != nil {
		s.last = result
	}
}

// IsRunning reports whether a job is active.
func (s *Session) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Status returns the current progress snapshot.
func (s *Session) Status() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// LastResult returns the most recent successful combined result, or nil.
func (s *Session) LastResult() *domain.CombinedResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
