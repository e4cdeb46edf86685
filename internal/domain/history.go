package domain

import "time"

// HistoryStatus is the terminal status of a job attempt.
type HistoryStatus string

const (
	HistoryCompleted HistoryStatus = "Completed"
	HistoryFailed    HistoryStatus = "Failed"
)

// HistoryEntry is an immutable record of one job attempt.
// Result is nil for failed jobs.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Source    SourceKind      `json:"source"`
	Model     string          `json:"model"`
	Status    HistoryStatus   `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Result    *CombinedResult `json:"-"`
}
