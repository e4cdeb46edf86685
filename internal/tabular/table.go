// Package tabular renders a combined extraction result as a table model
// and as the export payloads offered to users.
package tabular

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/timmy/tabextract/internal/domain"
)

// NoDataMessage is shown instead of a table when a job produced no rows.
const NoDataMessage = "No data extracted"

// Table is the display model of a combined result.
type Table struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Empty   bool       `json:"empty"`
	Message string     `json:"message,omitempty"`
}

// Headers returns the column titles for result. Display fields are used
// when they line up one-to-one with the canonical fields; otherwise every
// canonical field is titleized.
func Headers(result *domain.CombinedResult) []string {
	if result == nil {
		return nil
	}
	if len(result.DisplayFields) > 0 && len(result.DisplayFields) == len(result.Fields) {
		out := make([]string, len(result.DisplayFields))
		copy(out, result.DisplayFields)
		return out
	}
	out := make([]string, len(result.Fields))
	for i, f := range result.Fields {
		out[i] = Titleize(f)
	}
	return out
}

// Titleize turns a canonical field name into a display title:
// underscores become spaces and each word starts with a capital letter.
func Titleize(field string) string {
	runes := []rune(strings.ReplaceAll(field, "_", " "))
	prevWord := false
	for i, r := range runes {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && !prevWord {
			runes[i] = unicode.ToUpper(r)
		}
		prevWord = isWord
	}
	return string(runes)
}

// ToTable builds the table model. An empty row set yields an Empty table
// carrying NoDataMessage and no headers or rows.
func ToTable(result *domain.CombinedResult) Table {
	if result.IsEmpty() {
		return Table{Empty: true, Message: NoDataMessage}
	}
	rows := make([][]string, len(result.Rows))
	for i, rec := range result.Rows {
		rows[i] = rowCells(rec, result.Fields)
	}
	return Table{Headers: Headers(result), Rows: rows}
}

func rowCells(rec domain.Record, fields []string) []string {
	cells := make([]string, len(fields))
	for i, f := range fields {
		cells[i] = Cell(rec[f])
	}
	return cells
}

// Cell renders one value as display text. Absent and null values are
// empty, numbers use their shortest decimal form and nested values are
// written as compact JSON.
func Cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
