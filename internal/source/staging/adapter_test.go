package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCollectFollowsManifestOrder(t *testing.T) {
	dir := t.TempDir()
	files := filepath.Join(dir, FilesDir)
	if err := os.Mkdir(files, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{"one.pdf": "%PDF-1", "two.csv": "a,b"} {
		if err := os.WriteFile(filepath.Join(files, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	manifest := `{"filename":"two.csv"}
not json
{"filename":"missing.pdf"}

{"filename":"one.pdf","title":"First"}
`
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	if !IsStagingDir(dir) {
		t.Fatal("IsStagingDir = false")
	}

	units, err := NewAdapter(dir, 0).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(units) != 2 || units[0].Name != "two.csv" || units[1].Name != "one.pdf" {
		t.Fatalf("units = %+v", units)
	}
	if string(units[1].Payload) != "%PDF-1" {
		t.Errorf("payload = %q", units[1].Payload)
	}
}

func TestCollectWithoutManifest(t *testing.T) {
	if _, err := NewAdapter(t.TempDir(), 0).Collect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
