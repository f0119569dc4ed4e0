package installer

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func buildTestZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
}

func TestInstallFromLocalZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "catalog.zip")
	buildTestZip(t, archivePath, map[string]string{
		"net.yml":          "name: net\n",
		"sub/web.yml":      "name: web\n",
	})

	dest := filepath.Join(dir, "dest")
	if err := Install(archivePath, dest); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "net.yml")); err != nil {
		t.Fatalf("expected net.yml to be extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "sub", "web.yml")); err != nil {
		t.Fatalf("expected sub/web.yml to be extracted: %v", err)
	}
}

func TestInstallRejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	buildTestZip(t, archivePath, map[string]string{
		"../../escaped.yml": "name: evil\n",
	})

	dest := filepath.Join(dir, "dest")
	if err := Install(archivePath, dest); err == nil {
		t.Fatalf("expected zip-slip path traversal to be rejected")
	}
}

func TestInstallMissingLocalArchive(t *testing.T) {
	dir := t.TempDir()
	if err := Install(filepath.Join(dir, "does-not-exist.zip"), filepath.Join(dir, "dest")); err == nil {
		t.Fatalf("expected error for missing archive")
	}
}
