package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestContextFieldsReachOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "test"})

	ctx := log.WithContext(context.Background())
	ctx = SetJobID(ctx, "job-1")
	ctx = WithField(ctx, FieldModel, "ocr_standard")

	With(Fields{FieldCount: 3}).Info(ctx, "batch %d done", 1)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["message"] != "batch 1 done" {
		t.Errorf("unexpected message: %v", line["message"])
	}
	if line[FieldJobID] != "job-1" {
		t.Errorf("expected job_id field, got %v", line[FieldJobID])
	}
	if line[FieldModel] != "ocr_standard" {
		t.Errorf("expected model field, got %v", line[FieldModel])
	}
	if line[FieldCount] != float64(3) {
		t.Errorf("expected count field, got %v", line[FieldCount])
	}
	if line["service"] != "test" {
		t.Errorf("expected service field, got %v", line["service"])
	}
	if GetJobID(ctx) != "job-1" {
		t.Errorf("GetJobID = %q", GetJobID(ctx))
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != GetDefault() {
		t.Error("expected default logger for bare context")
	}
}
