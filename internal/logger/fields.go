package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldComponent = "component"
	FieldSource    = "source"
	FieldModel     = "model"
	FieldBatch     = "batch"
	FieldUnit      = "unit"
)

// Metric fields, attached per entry for aggregation and alerting.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
)
