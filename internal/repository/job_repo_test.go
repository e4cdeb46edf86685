package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timmy/tabextract/internal/config"
	"github.com/timmy/tabextract/internal/domain"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *JobRepository {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", AutoMigrate: true, MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return NewJobRepository(db)
}

func TestJobRepositoryLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job := &domain.ExtractionJob{
		ID:         "job-1",
		SourceKind: domain.SourceKindFile,
		Model:      "ocr_standard",
		Status:     domain.JobStatusRunning,
		TotalUnits: 3,
		StartedAt:  time.Now(),
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := time.Now()
	job.Status = domain.JobStatusCompleted
	job.SucceededUnits = 2
	job.FailedUnits = 1
	job.RowCount = 10
	job.CompletedAt = &done
	if err := repo.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.JobStatusCompleted || got.RowCount != 10 || got.CompletedAt == nil {
		t.Errorf("job = %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("GetByID(missing) error = %v", err)
	}
}

func TestJobRepositoryListRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		status := domain.JobStatusCompleted
		if id == "b" {
			status = domain.JobStatusFailed
		}
		if err := repo.Create(ctx, &domain.ExtractionJob{
			ID:         id,
			SourceKind: domain.SourceKindFile,
			Model:      "ols",
			Status:     status,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	jobs, err := repo.ListRecent(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "c" || jobs[1].ID != "b" {
		t.Errorf("ListRecent = %v", jobs)
	}

	failed, err := repo.CountByStatus(ctx, domain.JobStatusFailed)
	if err != nil || failed != 1 {
		t.Errorf("CountByStatus = %d, %v", failed, err)
	}
}
