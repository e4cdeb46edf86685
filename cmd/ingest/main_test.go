package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/timmy/tabextract/internal/tabular"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		path string
		f    tabular.Format
		want string
	}{
		{"", tabular.FormatCSV, "extracted_data.csv"},
		{"", tabular.FormatXLSX, "extracted_data.xlsx"},
		{"out/report", tabular.FormatJSON, "out/report.json"},
		{"out.v2/report.csv", tabular.FormatCSV, "out.v2/report.csv"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.path, tt.f); got != tt.want {
			t.Errorf("outputPath(%q, %s) = %q, want %q", tt.path, tt.f, got, tt.want)
		}
	}
}

func TestSourceFor(t *testing.T) {
	plain := t.TempDir()
	if got := sourceFor([]string{plain}, 1024).ID(); got != "local" {
		t.Errorf("plain dir source = %q, want local", got)
	}

	stagingDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(stagingDir, "manifest.jsonl"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := sourceFor([]string{stagingDir}, 1024).ID(); got == "local" {
		t.Errorf("manifest dir should use the staging source")
	}
	if got := sourceFor([]string{stagingDir, plain}, 1024).ID(); got != "local" {
		t.Errorf("multiple paths source = %q, want local", got)
	}
}
