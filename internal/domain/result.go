package domain

// ResultMetadata summarizes how a combined result was produced.
type ResultMetadata struct {
	MultiUnit       bool `json:"batch_processing"`
	TotalUnits      int  `json:"total_files"`
	CombinedRecords int  `json:"combined_records"`
}

// CombinedResult is the job-level merge of every successful unit.
// When no unit succeeded, Rows is empty and Fields is nil.
type CombinedResult struct {
	Rows          []Record       `json:"extractions"`
	Fields        []string       `json:"headers"`
	DisplayFields []string       `json:"display_headers"`
	Metadata      ResultMetadata `json:"metadata"`
}

// IsEmpty reports whether the result has no rows.
func (r *CombinedResult) IsEmpty() bool {
	return r == nil || len(r.Rows) == 0
}
