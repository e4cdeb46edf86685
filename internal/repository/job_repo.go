package repository

import (
	"context"
	"fmt"

	"github.com/timmy/tabextract/internal/domain"
	"gorm.io/gorm"
)

// JobRepository persists extraction job audit records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.ExtractionJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

// Update saves every field of an existing job record.
func (r *JobRepository) Update(ctx context.Context, job *domain.ExtractionJob) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}
	return nil
}

// GetByID retrieves a job by its ID. Returns gorm.ErrRecordNotFound when absent.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ExtractionJob, error) {
	var job domain.ExtractionJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListRecent returns up to limit jobs, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of jobs.
//   - offset: number of jobs to skip.
//
// Returns:
//   - []domain.ExtractionJob: jobs ordered by start time descending.
//   - error: non-nil if the query fails.
func (r *JobRepository) ListRecent(ctx context.Context, limit, offset int) ([]domain.ExtractionJob, error) {
	var jobs []domain.ExtractionJob
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// CountByStatus returns the number of jobs in the given status.
func (r *JobRepository) CountByStatus(ctx context.Context, status domain.JobStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ExtractionJob{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
