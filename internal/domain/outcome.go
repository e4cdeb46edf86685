package domain

import "fmt"

// Record is one extracted row keyed by canonical field name.
type Record map[string]interface{}

// ExtractionResult is the row-bearing payload of a successful extraction.
type ExtractionResult struct {
	Rows          []Record `json:"extractions"`
	Fields        []string `json:"headers"`
	DisplayFields []string `json:"display_headers"`
}

// FailureKind distinguishes transport failures from failures reported by the service.
type FailureKind string

const (
	// FailureTransport covers network errors and non-2xx responses.
	FailureTransport FailureKind = "transport"
	// FailureService covers 2xx responses whose payload declares failure.
	FailureService FailureKind = "service"
)

// UnitError describes why extraction failed for one unit.
type UnitError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *UnitError) Error() string {
	return e.Message
}

func (e *UnitError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure came from the transport rather than the service.
func (e *UnitError) Retryable() bool {
	return e.Kind == FailureTransport
}

// Outcome is the tagged result of attempting extraction on one unit.
// Exactly one of Result and Err is set.
type Outcome struct {
	Unit   *InputUnit
	Result *ExtractionResult
	Err    *UnitError
}

// Succeeded reports whether the outcome carries a result.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}

// Success builds a successful outcome.
func Success(unit *InputUnit, result *ExtractionResult) Outcome {
	return Outcome{Unit: unit, Result: result}
}

// Failure builds a failed outcome.
func Failure(unit *InputUnit, err *UnitError) Outcome {
	return Outcome{Unit: unit, Err: err}
}

// UnitFailure is the serializable view of a failed outcome.
type UnitFailure struct {
	Name       string      `json:"name"`
	Kind       FailureKind `json:"kind"`
	StatusCode int         `json:"status_code,omitempty"`
	Message    string      `json:"message"`
	Retryable  bool        `json:"retryable"`
}

// FailureOf converts a failed outcome to its serializable view.
func FailureOf(o Outcome) UnitFailure {
	f := UnitFailure{Message: "unknown failure"}
	if o.Unit != nil {
		f.Name = o.Unit.Name
	}
	if o.Err != nil {
		f.Kind = o.Err.Kind
		f.StatusCode = o.Err.StatusCode
		f.Message = o.Err.Message
		f.Retryable = o.Err.Retryable()
	}
	return f
}

func (f UnitFailure) String() string {
	return fmt.Sprintf("%s: %s", f.Name, f.Message)
}
