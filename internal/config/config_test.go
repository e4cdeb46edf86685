package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
extraction:
  base_url: http://extractor:5001
ingest:
  batch_size: 3
  settle_interval: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Extraction.BaseURL != "http://extractor:5001" {
		t.Errorf("base_url = %q", cfg.Extraction.BaseURL)
	}
	if cfg.Ingest.BatchSize != 3 {
		t.Errorf("batch_size = %d", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.SettleInterval != 250*time.Millisecond {
		t.Errorf("settle_interval = %v", cfg.Ingest.SettleInterval)
	}
	if cfg.Ingest.MaxFiles != 20 {
		t.Errorf("max_files default = %d, want 20", cfg.Ingest.MaxFiles)
	}
	if cfg.Ingest.MaxFileSize != 15*1024*1024 {
		t.Errorf("max_file_size default = %d", cfg.Ingest.MaxFileSize)
	}
	if cfg.Extraction.Timeout != 120*time.Second {
		t.Errorf("timeout default = %v", cfg.Extraction.Timeout)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Extraction: ExtractionConfig{BaseURL: "http://x"},
		Ingest:     IngestConfig{BatchSize: 5, MaxFiles: 20, MaxFileSize: 1},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	bad := base
	bad.Ingest.BatchSize = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero batch size")
	}

	bad = base
	bad.Storage = StorageConfig{Enabled: true}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for storage without bucket")
	}
}

func TestDSN(t *testing.T) {
	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/jobs.db"}
	if sqlite.DSN() != "./data/jobs.db" {
		t.Errorf("sqlite DSN = %q", sqlite.DSN())
	}
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "jobs", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=jobs sslmode=disable"
	if pg.DSN() != want {
		t.Errorf("postgres DSN = %q, want %q", pg.DSN(), want)
	}
}
