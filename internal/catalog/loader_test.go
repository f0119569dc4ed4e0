package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePage(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

const simplePage = `
name: net
functions:
  ping_host:
    description: ping a host
    parameters:
      host:
        type: string
        description: the host to ping
    cmdline: ["ping", "-c", "1", "${host}"]
`

func TestLoadSinglePage(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "net.yml"), simplePage)

	cat, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Size() != 1 {
		t.Fatalf("expected 1 page, got %d", cat.Size())
	}

	ref, err := cat.GetFunction("ping_host")
	if err != nil {
		t.Fatalf("GetFunction: %v", err)
	}
	if ref.Function.Description != "ping a host" {
		t.Fatalf("unexpected description: %q", ref.Function.Description)
	}
}

func TestLoadNoPages(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, nil); !errors.Is(err, ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
}

func TestLoadExcludesHiddenDirs(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, ".hidden", "net.yml"), simplePage)

	if _, err := Load(dir, nil); !errors.Is(err, ErrNoPages) {
		t.Fatalf("expected ErrNoPages (hidden dir excluded), got %v", err)
	}
}

func TestLoadFilterSubstring(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "net.yml"), simplePage)
	writePage(t, filepath.Join(dir, "other.yml"), `
name: other
functions:
  noop:
    description: does nothing
    cmdline: ["true"]
`)

	filter := "net.yml"
	cat, err := Load(dir, &filter)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Size() != 1 {
		t.Fatalf("expected 1 page after filter, got %d", cat.Size())
	}
}

func TestLoadRenamesDuplicateFunction(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "a_net.yml"), simplePage)
	writePage(t, filepath.Join(dir, "b_net.yml"), `
name: netb
functions:
  ping_host:
    description: also pings a host
    cmdline: ["ping", "-c", "1", "${host}"]
`)

	cat, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := cat.GetFunction("netb_ping_host"); err != nil {
		t.Fatalf("expected renamed function netb_ping_host, GetFunction: %v", err)
	}
	if _, err := cat.GetFunction("ping_host"); err != nil {
		t.Fatalf("expected original ping_host to still resolve: %v", err)
	}
}

func TestLoadInvalidFunctionIsWarningNotFatal(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "bad.yml"), `
name: bad
functions:
  broken:
    description: has neither cmdline nor platforms
  fine:
    description: this one is fine
    cmdline: ["true"]
`)

	cat, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load should not fail on a per-function validation error: %v", err)
	}
	if _, err := cat.GetFunction("fine"); err != nil {
		t.Fatalf("GetFunction(fine): %v", err)
	}
}
