package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/tabextract/internal/domain"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/prompts"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize bounds the number of in-flight submissions.
	DefaultBatchSize = 5
	// DefaultSettleInterval is the pause between consecutive batches.
	DefaultSettleInterval = time.Second
)

// ProgressFunc receives the number of processed units after each batch.
type ProgressFunc func(processed, total int)

// SchedulerConfig holds configuration for the batch scheduler.
type SchedulerConfig struct {
	BatchSize      int
	SettleInterval time.Duration
}

// Scheduler splits a job into fixed-size batches and drives the
// extraction client for every unit of each batch concurrently.
type Scheduler struct {
	client    Submitter
	batchSize int
	settle    time.Duration
}

// BatchReport is the outcome of a job in which at least one unit succeeded.
type BatchReport struct {
	Result    *domain.CombinedResult
	Units     int // every unit of the job, failed ones included
	Failures  []domain.Outcome
	Successes int
	Batches   int
}

// NewScheduler creates a new batch scheduler.
// Parameters:
//   - client: extraction client used for every unit.
//   - cfg: batch size and settle interval; zero values use the defaults.
//
// Returns:
//   - *Scheduler: ready to run jobs.
func NewScheduler(client Submitter, cfg *SchedulerConfig) *Scheduler {
	s := &Scheduler{client: client, batchSize: DefaultBatchSize, settle: DefaultSettleInterval}
	if cfg != nil {
		if cfg.BatchSize > 0 {
			s.batchSize = cfg.BatchSize
		}
		if cfg.SettleInterval >= 0 {
			s.settle = cfg.SettleInterval
		}
	}
	return s
}

// Partition splits units into consecutive batches of at most size units.
// Batch k holds units [k*size, k*size+size), clipped to len(units).
func Partition(units []domain.InputUnit, size int) [][]domain.InputUnit {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]domain.InputUnit, 0, (len(units)+size-1)/size)
	for start := 0; start < len(units); start += size {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		batches = append(batches, units[start:end])
	}
	return batches
}

// Run processes every unit and merges the successful results.
// Per-unit failures never abort sibling work; only a job with no
// successes fails.
// Parameters:
//   - ctx: checked between batches; a cancelled context stops the job
//     before the next batch but never aborts calls already in flight.
//   - units: accepted units in job order.
//   - modelID: model identifier used to build the instruction.
//   - params: optional free-form parameters.
//   - progress: called after each batch; may be nil.
//
// Returns:
//   - *BatchReport: combined result plus collected failures.
//   - error: ErrNoUnitsProvided, *AllUnitsFailedError, or a context error.
func (s *Scheduler) Run(ctx context.Context, units []domain.InputUnit, modelID, params string, progress ProgressFunc) (*BatchReport, error) {
	if len(units) == 0 {
		return nil, domain.ErrNoUnitsProvided
	}

	instruction := prompts.Build(modelID, params)
	batches := Partition(units, s.batchSize)
	total := len(units)

	var (
		successes []domain.ExtractionResult
		failures  []domain.Outcome
		processed int
	)

	for i, batch := range batches {
		start := time.Now()
		outcomes := make([]domain.Outcome, len(batch))

		// Calls already started run to completion; cancellation only stops the next batch
		submitCtx := context.WithoutCancel(ctx)
		var g errgroup.Group
		for j := range batch {
			unit := &batch[j]
			g.Go(func() error {
				outcomes[j] = s.client.Submit(submitCtx, unit, instruction)
				return nil
			})
		}
		_ = g.Wait()

		for _, o := range outcomes {
			if o.Succeeded() {
				successes = append(successes, *o.Result)
			} else {
				failures = append(failures, o)
			}
		}

		processed += len(batch)
		if progress != nil {
			progress(processed, total)
		}
		logger.With(logger.Fields{
			logger.FieldBatch: i + 1,
			logger.FieldCount: len(batch),
		}).WithDuration(time.Since(start).Milliseconds()).
			Info(ctx, "Processing files... %d/%d completed", processed, total)

		if i == len(batches)-1 {
			break
		}
		if err := s.wait(ctx); err != nil {
			return nil, fmt.Errorf("job stopped after %d of %d units: %w", processed, total, err)
		}
	}

	if len(successes) == 0 {
		return nil, &domain.AllUnitsFailedError{Failures: failures}
	}

	return &BatchReport{
		Result:    Combine(successes),
		Units:     total,
		Failures:  failures,
		Successes: len(successes),
		Batches:   len(batches),
	}, nil
}

func (s *Scheduler) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.settle <= 0 {
		return nil
	}
	timer := time.NewTimer(s.settle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
