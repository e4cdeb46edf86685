package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "batch")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(sub, "b.csv"), "x,y\n1,2")
	write(filepath.Join(sub, "a.pdf"), "%PDF")
	write(filepath.Join(sub, "notes.txt"), "ignored payload")
	single := filepath.Join(dir, "big.csv")
	write(single, "0123456789")

	units, err := NewAdapter([]string{single, sub}, 5).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	names := []string{"big.csv", "a.pdf", "b.csv", "notes.txt"}
	if len(units) != len(names) {
		t.Fatalf("got %d units, want %d", len(units), len(names))
	}
	for i, u := range units {
		if u.Name != names[i] {
			t.Errorf("unit %d = %s, want %s", i, u.Name, names[i])
		}
	}
	if units[0].Size != 10 || units[0].Payload != nil {
		t.Errorf("oversized file should carry size only: %+v", units[0])
	}
	if string(units[1].Payload) != "%PDF" {
		t.Errorf("payload = %q", units[1].Payload)
	}
	if units[3].Payload != nil {
		t.Error("unsupported file should not be read")
	}
}

func TestCollectMissingPath(t *testing.T) {
	if _, err := NewAdapter([]string{"/does/not/exist.pdf"}, 0).Collect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
