package domain

import "time"

// JobStatus represents the status of an extraction job.
// Values include JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ExtractionJob is the persisted audit record of one extraction job.
type ExtractionJob struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	SourceKind     SourceKind `gorm:"type:text;not null;index" json:"source_kind"`
	Model          string     `gorm:"type:text;not null" json:"model"`
	Status         JobStatus  `gorm:"type:text;index;default:running" json:"status"`
	TotalUnits     int        `gorm:"default:0" json:"total_units"`
	SucceededUnits int        `gorm:"default:0" json:"succeeded_units"`
	FailedUnits    int        `gorm:"default:0" json:"failed_units"`
	RowCount       int        `gorm:"default:0" json:"row_count"`
	ErrorLog       string     `json:"error_log,omitempty"`
	ArchiveKey     string     `gorm:"type:text" json:"archive_key,omitempty"`
	ArchiveURL     string     `gorm:"type:text" json:"archive_url,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ExtractionJob.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ExtractionJob) TableName() string {
	return "extraction_jobs"
}
