package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/service"
	"github.com/timmy/tabextract/internal/tabular"
)

// FileInfo describes one accepted input in a job response.
type FileInfo struct {
	Name      string           `json:"name"`
	Size      int64            `json:"size"`
	SizeLabel string           `json:"size_label"`
	Kind      domain.MediaKind `json:"kind"`
	Pages     int              `json:"pages,omitempty"`
}

// JobResponse is the body returned for a finished or failed job.
type JobResponse struct {
	JobID      string                 `json:"job_id,omitempty"`
	HistoryID  string                 `json:"history_id,omitempty"`
	Status     domain.HistoryStatus   `json:"status,omitempty"`
	Source     string                 `json:"source,omitempty"`
	Table      *tabular.Table         `json:"table,omitempty"`
	Metadata   *domain.ResultMetadata `json:"metadata,omitempty"`
	Files      []FileInfo             `json:"files,omitempty"`
	Failures   []domain.UnitFailure   `json:"failures,omitempty"`
	ArchiveURL string                 `json:"archive_url,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

func newJobResponse(out *service.JobOutcome) *JobResponse {
	resp := &JobResponse{
		JobID:     out.JobID,
		HistoryID: out.Entry.ID,
		Status:    out.Entry.Status,
		Source:    out.Entry.Source.Label(),
		Failures:  out.Failures,
	}
	for _, u := range out.Units {
		resp.Files = append(resp.Files, FileInfo{
			Name:      u.Name,
			Size:      u.Size,
			SizeLabel: service.FormatBytes(u.Size),
			Kind:      u.Kind,
			Pages:     u.Pages,
		})
	}
	if out.Result != nil {
		table := tabular.ToTable(out.Result)
		resp.Table = &table
		meta := out.Result.Metadata
		resp.Metadata = &meta
	}
	if out.Archive != nil {
		resp.ArchiveURL = out.Archive.URL
	}
	return resp
}

// statusForJobError maps a job error onto an HTTP status.
func statusForJobError(err error) int {
	switch {
	case errors.Is(err, domain.ErrJobRunning):
		return http.StatusConflict
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAllUnitsFailed), errors.Is(err, domain.ErrSourceRecordNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJobError(c *gin.Context, out *service.JobOutcome, err error) {
	resp := &JobResponse{}
	if out != nil {
		resp = newJobResponse(out)
	}
	resp.Error = err.Error()
	_ = c.Error(err)
	c.JSON(statusForJobError(err), resp)
}

func writeExport(c *gin.Context, result *domain.CombinedResult, formatName string) {
	format, err := tabular.ParseFormat(formatName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := tabular.Export(result, format)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed: " + err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+format.FileName()+`"`)
	c.Data(http.StatusOK, format.ContentType(), data)
}
