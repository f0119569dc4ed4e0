package viewer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dreadnode/robopages-go/internal/catalog"
)

func TestPrintListsFunctionsAndParameters(t *testing.T) {
	dir := t.TempDir()
	content := `
name: net
functions:
  ping_host:
    description: ping a host
    parameters:
      host:
        type: string
        description: the host
    cmdline: ["ping", "-c", "1", "${host}"]
`
	if err := os.WriteFile(filepath.Join(dir, "net.yml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cat, err := catalog.Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	Print(&buf, cat)

	out := buf.String()
	if !strings.Contains(out, "ping_host") || !strings.Contains(out, "host") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTruncateShortStringUnchanged(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestTruncateLongStringEllipsized(t *testing.T) {
	got := truncate(strings.Repeat("a", 50), 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate = %q", got)
	}
}
