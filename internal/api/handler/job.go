package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/service"
	"github.com/timmy/tabextract/internal/session"
	"gorm.io/gorm"
)

// JobRunner runs extraction jobs. *service.JobService satisfies it.
type JobRunner interface {
	RunFiles(ctx context.Context, candidates []domain.InputUnit, modelID, params string) (*service.JobOutcome, error)
	RunExisting(ctx context.Context, recordID, modelID, params string) (*service.JobOutcome, error)
}

// JobLister reads audit records. *repository.JobRepository satisfies it.
type JobLister interface {
	ListRecent(ctx context.Context, limit, offset int) ([]domain.ExtractionJob, error)
	GetByID(ctx context.Context, id string) (*domain.ExtractionJob, error)
	CountByStatus(ctx context.Context, status domain.JobStatus) (int64, error)
}

// ArchiveReader loads archived exports. *storage.Archive satisfies it.
type ArchiveReader interface {
	Load(ctx context.Context, key string) ([]byte, error)
}

// StatusReporter exposes the running job's progress.
type StatusReporter interface {
	IsRunning() bool
	Status() session.Progress
}

// JobHandler handles extraction job endpoints.
type JobHandler struct {
	runner      JobRunner
	status      StatusReporter
	audit       JobLister
	archive     ArchiveReader
	maxFileSize int64
}

// NewJobHandler creates a new job handler.
// Parameters:
//   - runner: job service.
//   - status: session progress reporter.
//   - audit: audit record reader; nil when the database is disabled.
//   - archive: export archive; nil when storage is disabled.
//   - maxFileSize: uploads above this size are not read into memory.
//
// Returns:
//   - *JobHandler: initialized handler.
func NewJobHandler(runner JobRunner, status StatusReporter, audit JobLister, archive ArchiveReader, maxFileSize int64) *JobHandler {
	return &JobHandler{
		runner:      runner,
		status:      status,
		audit:       audit,
		archive:     archive,
		maxFileSize: maxFileSize,
	}
}

// ExistingJobRequest is the body of POST /api/v1/jobs/existing.
type ExistingJobRequest struct {
	SurveyID flexibleID `json:"survey_id"`
	Model    string     `json:"model"`
	Params   string     `json:"params"`
}

// flexibleID accepts a JSON string or number.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("survey_id must be a string or number")
	}
	*f = flexibleID(n.String())
	return nil
}

// CreateFileJob handles POST /api/v1/jobs/files.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *JobHandler) CreateFileJob(c *gin.Context) {
	ctx := c.Request.Context()

	if h.status.IsRunning() {
		c.JSON(http.StatusConflict, JobResponse{Error: domain.ErrJobRunning.Error()})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, JobResponse{Error: "Invalid multipart form: " + err.Error()})
		return
	}

	candidates := make([]domain.InputUnit, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		unit, err := h.readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, JobResponse{Error: err.Error()})
			return
		}
		candidates = append(candidates, unit)
	}

	model := c.PostForm("model")
	params := c.PostForm("params")
	logger.CtxInfo(ctx, "Received file job: files=%d, model=%s, client_ip=%s", len(candidates), model, c.ClientIP())

	// Jobs outlive the request; a dropped connection must not cancel them
	jobCtx := logger.FromContext(ctx).WithContext(context.Background())
	out, err := h.runner.RunFiles(jobCtx, candidates, model, params)
	if err != nil {
		writeJobError(c, out, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(out))
}

// readUpload loads an uploaded file. Files the validator will reject
// anyway are described by name and size only.
func (h *JobHandler) readUpload(fh *multipart.FileHeader) (domain.InputUnit, error) {
	unit := domain.InputUnit{Name: fh.Filename, Size: fh.Size}
	if _, ok := domain.MediaKindFromName(fh.Filename); !ok {
		return unit, nil
	}
	if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
		return unit, nil
	}
	f, err := fh.Open()
	if err != nil {
		return unit, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return unit, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	unit.Payload = data
	return unit, nil
}

// CreateExistingJob handles POST /api/v1/jobs/existing.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *JobHandler) CreateExistingJob(c *gin.Context) {
	ctx := c.Request.Context()

	var req ExistingJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, JobResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	logger.CtxInfo(ctx, "Received existing-data job: survey_id=%s, model=%s", req.SurveyID, req.Model)

	jobCtx := logger.FromContext(ctx).WithContext(context.Background())
	out, err := h.runner.RunExisting(jobCtx, string(req.SurveyID), req.Model, req.Params)
	if err != nil {
		writeJobError(c, out, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(out))
}

// Status handles GET /api/v1/jobs/status.
func (h *JobHandler) Status(c *gin.Context) {
	p := h.status.Status()
	resp := gin.H{
		"running":   p.Running,
		"processed": p.Processed,
		"total":     p.Total,
	}
	if p.Running {
		resp["job_id"] = p.JobID
		resp["message"] = fmt.Sprintf("Processing files... %d/%d completed", p.Processed, p.Total)
	}
	c.JSON(http.StatusOK, resp)
}

// ListJobs handles GET /api/v1/jobs.
func (h *JobHandler) ListJobs(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job audit is not enabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	jobs, err := h.audit.ListRecent(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs: " + err.Error()})
		return
	}

	counts := gin.H{}
	for _, status := range []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusCompleted, domain.JobStatusFailed} {
		n, err := h.audit.CountByStatus(c.Request.Context(), status)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count jobs: " + err.Error()})
			return
		}
		counts[string(status)] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"counts": counts,
		"limit":  limit,
		"offset": offset,
	})
}

// GetJob handles GET /api/v1/jobs/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job)
}

// DownloadArchive handles GET /api/v1/jobs/:id/archive and streams the
// archived CSV of a completed job.
func (h *JobHandler) DownloadArchive(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Export archive is not enabled"})
		return
	}
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}
	if job.ArchiveKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job has no archived export"})
		return
	}

	data, err := h.archive.Load(c.Request.Context(), job.ArchiveKey)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load archived export: " + err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ID+".csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *JobHandler) lookupJob(c *gin.Context) (*domain.ExtractionJob, bool) {
	if h.audit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job audit is not enabled"})
		return nil, false
	}
	job, err := h.audit.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return nil, false
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job: " + err.Error()})
		return nil, false
	}
	return job, true
}
