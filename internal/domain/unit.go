package domain

import (
	"path/filepath"
	"strings"
)

// MediaKind identifies what an input unit carries.
// Values include MediaKindPDF, MediaKindCSV, and MediaKindRecord.
type MediaKind string

const (
	MediaKindPDF    MediaKind = "pdf"
	MediaKindCSV    MediaKind = "csv"
	MediaKindRecord MediaKind = "record"
)

// SourceKind identifies where a job's inputs came from.
type SourceKind string

const (
	SourceKindFile     SourceKind = "file"
	SourceKindExisting SourceKind = "existing"
)

// Label returns the human-readable name shown in job history.
func (s SourceKind) Label() string {
	if s == SourceKindFile {
		return "Uploaded Files"
	}
	return "Existing Data"
}

// InputUnit is one accepted input to process: an uploaded file or a
// server-resident record.
type InputUnit struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Kind     MediaKind `json:"kind"`
	Payload  []byte    `json:"-"`
	RecordID string    `json:"record_id,omitempty"`
	Pages    int       `json:"pages,omitempty"`
}

// MediaKindFromName maps a filename extension onto an accepted media kind.
// Parameters:
//   - name: file name as supplied by the caller.
// Returns:
//   - MediaKind: detected kind.
//   - bool: false when the extension is not on the allow-list.
func MediaKindFromName(name string) (MediaKind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MediaKindPDF, true
	case ".csv":
		return MediaKindCSV, true
	default:
		return "", false
	}
}

// IsRecord reports whether the unit references stored data rather than a file.
func (u *InputUnit) IsRecord() bool {
	return u.Kind == MediaKindRecord
}
