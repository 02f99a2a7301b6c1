package manifest_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"stackpress/internal/manifest"
)

func TestWriteEmptyManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := manifest.Write(path, manifest.Manifest{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got, want := string(data), "{\n  \"basenames\": []\n}\n"; got != want {
		t.Fatalf("manifest = %q, want %q", got, want)
	}
}

func TestWriteKeepsOrderAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	var m manifest.Manifest
	for _, base := range []string{"img1", "img2", "img2", "img10"} {
		m.Add(base)
	}
	if err := manifest.Write(path, m); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := manifest.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := []string{"img1", "img2", "img2", "img10"}; !reflect.DeepEqual(got.Basenames, want) {
		t.Fatalf("basenames = %v, want %v", got.Basenames, want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the manifest in %s, found %d entries", dir, len(entries))
	}
}

func TestReadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := manifest.Read(path); err == nil {
		t.Fatal("expected decode error")
	}
}
