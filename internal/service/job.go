package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/prompts"
	"github.com/timmy/tabextract/internal/session"
	"github.com/timmy/tabextract/internal/storage"
	"github.com/timmy/tabextract/internal/tabular"
)

// JobStore persists audit records. *repository.JobRepository satisfies it.
type JobStore interface {
	Create(ctx context.Context, job *domain.ExtractionJob) error
	Update(ctx context.Context, job *domain.ExtractionJob) error
}

// JobService runs extraction jobs end to end: validate, schedule,
// aggregate and record.
type JobService struct {
	validator *Validator
	scheduler *Scheduler
	session   *session.Session
	jobs      JobStore
	archive   *storage.Archive
	logger    *logger.Logger
}

// JobOutcome is what a finished job returns to its caller.
type JobOutcome struct {
	JobID    string                  `json:"job_id"`
	Entry    domain.HistoryEntry     `json:"history_entry"`
	Units    []domain.InputUnit      `json:"units"`
	Result   *domain.CombinedResult  `json:"-"`
	Failures []domain.UnitFailure    `json:"failures"`
	Archive  *storage.ArchivedExport `json:"archive,omitempty"`
	Duration time.Duration           `json:"-"`
}

// NewJobService creates a new job service.
// Parameters:
//   - validator: input policy for file jobs.
//   - scheduler: batch scheduler driving the extraction client.
//   - sess: session owning history, last result and the running guard.
//   - jobs: audit store; nil disables persistence.
//   - archive: export archive; nil disables archiving.
//   - log: fallback logger when the context carries none.
//
// Returns:
//   - *JobService: ready to run jobs.
func NewJobService(
	validator *Validator,
	scheduler *Scheduler,
	sess *session.Session,
	jobs JobStore,
	archive *storage.Archive,
	log *logger.Logger,
) *JobService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &JobService{
		validator: validator,
		scheduler: scheduler,
		session:   sess,
		jobs:      jobs,
		archive:   archive,
		logger:    log,
	}
}

// Session returns the session the service records into.
func (s *JobService) Session() *session.Session {
	return s.session
}

// RunFiles validates candidates and runs a file job.
// Validation failures return before any network activity and leave no
// history entry.
// Parameters:
//   - ctx: context for the job; cancelling it stops between batches.
//   - candidates: raw file selection with payloads.
//   - modelID: model identifier.
//   - params: optional free-form parameters.
//
// Returns:
//   - *JobOutcome: outcome of the job, also returned alongside a job-level failure.
//   - error: validation error, ErrJobRunning, or *AllUnitsFailedError.
func (s *JobService) RunFiles(ctx context.Context, candidates []domain.InputUnit, modelID, params string) (*JobOutcome, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, domain.ErrModelRequired
	}
	units, err := s.validator.Validate(candidates)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, domain.SourceKindFile, units, modelID, params)
}

// RunExisting runs a job over one stored survey record.
// An unknown id fails the job with an error that satisfies
// errors.Is(err, domain.ErrSourceRecordNotFound).
func (s *JobService) RunExisting(ctx context.Context, recordID, modelID, params string) (*JobOutcome, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, domain.ErrModelRequired
	}
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return nil, domain.ErrNoUnitsProvided
	}
	unit := domain.InputUnit{
		Name:     "survey " + recordID,
		Kind:     domain.MediaKindRecord,
		RecordID: recordID,
	}
	return s.run(ctx, domain.SourceKindExisting, []domain.InputUnit{unit}, modelID, params)
}

func (s *JobService) run(ctx context.Context, source domain.SourceKind, units []domain.InputUnit, modelID, params string) (*JobOutcome, error) {
	jobID := uuid.New().String()
	if err := s.session.Begin(jobID, len(units)); err != nil {
		return nil, err
	}

	if logger.FromContext(ctx) == logger.GetDefault() {
		ctx = s.logger.WithContext(ctx)
	}
	ctx = logger.SetJobID(ctx, jobID)
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldSource: string(source),
		logger.FieldModel:  modelID,
	})

	if !prompts.IsKnownModel(modelID) {
		logger.CtxWarn(ctx, "Unknown model %q, using the generic extraction instruction", modelID)
	}

	start := time.Now()
	s.annotatePages(ctx, units)

	audit := &domain.ExtractionJob{
		ID:         jobID,
		SourceKind: source,
		Model:      modelID,
		Status:     domain.JobStatusRunning,
		TotalUnits: len(units),
		StartedAt:  start,
	}
	s.persist(ctx, audit, true)

	logger.With(logger.Fields{logger.FieldCount: len(units)}).
		Info(ctx, "Starting extraction job")

	report, err := s.scheduler.Run(ctx, units, modelID, params, s.session.Advance)
	outcome := &JobOutcome{JobID: jobID, Units: units}
	completed := time.Now()
	audit.CompletedAt = &completed
	outcome.Duration = completed.Sub(start)

	if err != nil {
		outcome.Entry = s.session.History().Record(source, modelID, domain.HistoryFailed, nil)
		var afe *domain.AllUnitsFailedError
		if errors.As(err, &afe) {
			outcome.Failures = failuresOf(afe.Failures)
			audit.FailedUnits = len(afe.Failures)
		}
		audit.Status = domain.JobStatusFailed
		audit.ErrorLog = err.Error()
		s.persist(ctx, audit, false)
		s.session.End(nil)

		logger.With(logger.Fields{logger.FieldStatus: string(domain.HistoryFailed)}).
			WithDuration(outcome.Duration.Milliseconds()).
			Error(ctx, "Extraction job failed: %v", err)
		return outcome, err
	}

	outcome.Result = report.Result
	outcome.Failures = failuresOf(report.Failures)
	outcome.Entry = s.session.History().Record(source, modelID, domain.HistoryCompleted, report.Result)

	if s.archive != nil && !report.Result.IsEmpty() {
		exp, aerr := s.archive.Save(ctx, jobID, string(tabular.FormatCSV), tabular.FormatCSV.ContentType(),
			[]byte(tabular.ToDelimited(report.Result)))
		if aerr != nil {
			logger.CtxWarn(ctx, "Failed to archive export: %v", aerr)
		} else {
			outcome.Archive = exp
			audit.ArchiveKey = exp.Key
			audit.ArchiveURL = exp.URL
		}
	}

	audit.Status = domain.JobStatusCompleted
	audit.SucceededUnits = report.Successes
	audit.FailedUnits = len(report.Failures)
	audit.RowCount = len(report.Result.Rows)
	if len(outcome.Failures) > 0 {
		msgs := make([]string, len(outcome.Failures))
		for i, f := range outcome.Failures {
			msgs[i] = f.String()
		}
		audit.ErrorLog = strings.Join(msgs, ", ")
	}
	s.persist(ctx, audit, false)
	s.session.End(report.Result)

	logger.With(logger.Fields{
		logger.FieldStatus: string(domain.HistoryCompleted),
		logger.FieldCount:  len(report.Result.Rows),
		"failed":           len(report.Failures),
		"batches":          report.Batches,
	}).WithDuration(outcome.Duration.Milliseconds()).
		Info(ctx, "Extraction job completed")
	return outcome, nil
}

// annotatePages records page counts for PDF units. Failures only log;
// the extraction service is the authority on whether a document is usable.
func (s *JobService) annotatePages(ctx context.Context, units []domain.InputUnit) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	for i := range units {
		u := &units[i]
		if u.Kind != domain.MediaKindPDF || len(u.Payload) == 0 {
			continue
		}
		pages, err := pdfapi.PageCount(bytes.NewReader(u.Payload), conf)
		if err != nil {
			logger.With(logger.Fields{logger.FieldUnit: u.Name}).
				Debug(ctx, "Could not read page count: %v", err)
			continue
		}
		u.Pages = pages
	}
}

func (s *JobService) persist(ctx context.Context, job *domain.ExtractionJob, create bool) {
	if s.jobs == nil {
		return
	}
	var err error
	if create {
		err = s.jobs.Create(ctx, job)
	} else {
		err = s.jobs.Update(ctx, job)
	}
	if err != nil {
		logger.CtxWarn(ctx, "Failed to persist job record: %v", err)
	}
}

func failuresOf(outcomes []domain.Outcome) []domain.UnitFailure {
	out := make([]domain.UnitFailure, len(outcomes))
	for i, o := range outcomes {
		out[i] = domain.FailureOf(o)
	}
	return out
}
