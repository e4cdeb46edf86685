package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (m *memStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key], nil
}

func (m *memStore) URL(key string) string { return "https://cdn.example.com/" + key }

func (m *memStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func TestArchiveSaveAndLoad(t *testing.T) {
	store := &memStore{}
	a := NewArchive(store, "/exports/")
	a.now = func() time.Time { return time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC) }

	got, err := a.Save(context.Background(), "job-1", "csv", "text/csv", []byte("A\n1"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got.Key != "exports/2024/03/01/job-1.csv" {
		t.Errorf("Key = %q", got.Key)
	}
	if got.URL != "https://cdn.example.com/exports/2024/03/01/job-1.csv" {
		t.Errorf("URL = %q", got.URL)
	}

	data, err := a.Load(context.Background(), got.Key)
	if err != nil || string(data) != "A\n1" {
		t.Errorf("Load = %q, %v", data, err)
	}
	if _, err := a.Load(context.Background(), "exports/missing.csv"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestArchiveSaveError(t *testing.T) {
	a := NewArchive(&memStore{putErr: errors.New("denied")}, "exports")
	if _, err := a.Save(context.Background(), "job", "csv", "text/csv", nil); err == nil || !strings.Contains(err.Error(), "denied") {
		t.Errorf("Save error = %v", err)
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := map[string]StorageType{
		"https://acct.r2.cloudflarestorage.com": StorageTypeR2,
		"s3.us-west-2.amazonaws.com":            StorageTypeS3,
		"localhost:9000":                        StorageTypeS3Compatible,
	}
	for endpoint, want := range tests {
		if got := detectStorageType(endpoint); got != want {
			t.Errorf("detectStorageType(%q) = %s, want %s", endpoint, got, want)
		}
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		ssl      bool
		want     string
	}{
		{"localhost:9000", false, "http://localhost:9000"},
		{"https://minio.local/path", true, "https://minio.local"},
		{"", true, ""},
	}
	for _, tt := range tests {
		if got := endpointURL(tt.endpoint, tt.ssl); got != tt.want {
			t.Errorf("endpointURL(%q, %v) = %q, want %q", tt.endpoint, tt.ssl, got, tt.want)
		}
	}
}
