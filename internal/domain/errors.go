package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoUnitsProvided      = errors.New("no units provided")
	ErrTooManyInputs        = errors.New("too many inputs")
	ErrOversizedInput       = errors.New("oversized input")
	ErrAllUnitsFailed       = errors.New("all units failed")
	ErrSourceRecordNotFound = errors.New("source record not found")
	ErrModelRequired        = errors.New("model is required")
	ErrJobRunning           = errors.New("a job is already running")
	ErrHistoryEntryNotFound = errors.New("history entry not found")
)

// TooManyInputsError reports a selection above the per-job file ceiling.
type TooManyInputsError struct {
	Count int
	Max   int
}

func (e *TooManyInputsError) Error() string {
	return fmt.Sprintf("maximum %d files allowed, got %d", e.Max, e.Count)
}

func (e *TooManyInputsError) Unwrap() error {
	return ErrTooManyInputs
}

// OversizedInputError names every accepted file above the per-file byte ceiling.
type OversizedInputError struct {
	Names    []string
	MaxBytes int64
}

func (e *OversizedInputError) Error() string {
	return fmt.Sprintf("the following files exceed the %d byte limit: %s", e.MaxBytes, strings.Join(e.Names, ", "))
}

func (e *OversizedInputError) Unwrap() error {
	return ErrOversizedInput
}

// AllUnitsFailedError is returned when no unit of a job succeeded.
type AllUnitsFailedError struct {
	Failures []Outcome
}

func (e *AllUnitsFailedError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, FailureOf(f).String())
	}
	return "all files failed to process: " + strings.Join(msgs, ", ")
}

// Unwrap exposes ErrAllUnitsFailed and every per-unit cause to errors.Is and errors.As.
func (e *AllUnitsFailedError) Unwrap() []error {
	errs := []error{ErrAllUnitsFailed}
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// IsValidationError reports whether err stops a job before any network activity.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoUnitsProvided) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, ErrOversizedInput) ||
		errors.Is(err, ErrModelRequired)
}
