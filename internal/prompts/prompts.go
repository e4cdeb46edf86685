package prompts

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// ============================================================================
// Model identifiers
// ============================================================================

const (
	ModelOCRStandard        = "ocr_standard"
	ModelOCRHandwriting     = "ocr_handwriting"
	ModelDataClassification = "data_classification"
	ModelAutoClean          = "auto_clean"
	ModelRegression         = "regression"
	ModelOLS                = "ols"
)

// DefaultInstruction is used for model identifiers without a template.
const DefaultInstruction = "Extract relevant data from this document"

// ExistingDataColumns is the target schema requested for stored-record extraction.
var ExistingDataColumns = []string{"Field", "Value", "Type"}

var templates = map[string]string{
	ModelOCRStandard:        "Extract all text content from this document using standard OCR techniques",
	ModelOCRHandwriting:     "Extract handwritten text from this document with special attention to form fields",
	ModelDataClassification: "Classify and categorize the data in this document",
	ModelAutoClean:          "Clean and normalize the data, removing duplicates and fixing formatting issues",
	ModelRegression:         "Perform regression analysis on the numerical data in this document",
	ModelOLS:                "Perform Ordinary Least Squares regression analysis on the data",
}

// ModelTemplate pairs a model identifier with its fixed instruction.
type ModelTemplate struct {
	ID          string `json:"id"`
	Instruction string `json:"instruction"`
}

// Models returns every recognized model template sorted by identifier.
func Models() []ModelTemplate {
	out := make([]ModelTemplate, 0, len(templates))
	for id, text := range templates {
		out = append(out, ModelTemplate{ID: id, Instruction: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsKnownModel reports whether modelID has a dedicated template.
func IsKnownModel(modelID string) bool {
	_, ok := templates[modelID]
	return ok
}

// Build returns the instruction sent with every unit of a job.
// Parameters:
//   - modelID: selected model identifier; unknown ids fall back to DefaultInstruction.
//   - params: optional free-form parameters. JSON input is compacted,
//     anything else is appended verbatim.
// Returns:
//   - string: the instruction text.
func Build(modelID, params string) string {
	instruction, ok := templates[modelID]
	if !ok {
		instruction = DefaultInstruction
	}

	params = strings.TrimSpace(params)
	if params == "" {
		return instruction
	}

	return instruction + " with parameters: " + reflectParams(params)
}

// reflectParams compacts JSON params, keeping their key order.
func reflectParams(params string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(params)); err != nil {
		return params
	}
	return buf.String()
}
