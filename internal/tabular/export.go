package tabular

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/timmy/tabextract/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Format is an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet name used in XLSX exports.
const SheetName = "Extracted Data"

// ParseFormat maps a user supplied format name onto a Format. An empty
// name selects CSV.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", name)
	}
}

// FileName returns the download name for the format.
func (f Format) FileName() string {
	return "extracted_data." + string(f)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Export renders result in format f.
func Export(result *domain.CombinedResult, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return []byte(ToDelimited(result)), nil
	case FormatJSON:
		return ToJSON(result)
	case FormatXLSX:
		return ToXLSX(result)
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

// ToDelimited renders result as comma-separated text: a header line then
// one line per record, joined by "\n" with no trailing newline. A cell
// containing a comma, newline or double quote is quoted and its quotes
// doubled. An empty row set renders as "".
func ToDelimited(result *domain.CombinedResult) string {
	if result.IsEmpty() {
		return ""
	}
	lines := make([]string, 0, len(result.Rows)+1)
	lines = append(lines, joinCells(Headers(result)))
	for _, rec := range result.Rows {
		lines = append(lines, joinCells(rowCells(rec, result.Fields)))
	}
	return strings.Join(lines, "\n")
}

func joinCells(cells []string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = quoteCell(c)
	}
	return strings.Join(quoted, ",")
}

func quoteCell(s string) string {
	if !strings.ContainsAny(s, ",\n\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ToJSON renders the records as an indented JSON array.
func ToJSON(result *domain.CombinedResult) ([]byte, error) {
	rows := []domain.Record{}
	if result != nil && result.Rows != nil {
		rows = result.Rows
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return b, nil
}

// ToXLSX renders result as a single-sheet workbook with the same header
// and cell text as the delimited export.
func ToXLSX(result *domain.CombinedResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	if !result.IsEmpty() {
		if err := writeRow(f, 1, Headers(result)); err != nil {
			return nil, err
		}
		for i, rec := range result.Rows {
			if err := writeRow(f, i+2, rowCells(rec, result.Fields)); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx cell: %w", err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	return nil
}
