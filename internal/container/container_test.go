package container

import (
	"os"
	"testing"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/command"
)

func TestRuntimeDefaultsToDocker(t *testing.T) {
	os.Unsetenv(RuntimeEnvVar)
	if got := Runtime(); got != DefaultRuntime {
		t.Fatalf("Runtime() = %q, want %q", got, DefaultRuntime)
	}
}

func TestRuntimeRespectsEnvVar(t *testing.T) {
	t.Setenv(RuntimeEnvVar, "podman")
	if got := Runtime(); got != "podman" {
		t.Fatalf("Runtime() = %q, want podman", got)
	}
}

func TestWrapComposesArgvWithImage(t *testing.T) {
	d := &Driver{runtime: "true"}

	cmd, err := command.FromArgv([]string{"nmap", "-sV", "target.example.com"})
	if err != nil {
		t.Fatalf("FromArgv: %v", err)
	}

	spec := &catalog.ContainerSpec{
		Image:   "nmap:latest",
		Volumes: []string{"/tmp:/tmp"},
	}

	wrapped, err := d.Wrap(cmd, spec)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	found := false
	for _, a := range wrapped.Args {
		if a == "nmap:latest" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected image ref in args, got %v", wrapped.Args)
	}

	last := wrapped.Args[len(wrapped.Args)-3:]
	want := []string{"nmap:latest", "-sV", "target.example.com"}
	for i, w := range want {
		if last[i] != w {
			t.Fatalf("trailing args = %v, want image ref then original args %v", last, want)
		}
	}
}

func TestWrapPreservesAppBinary(t *testing.T) {
	d := &Driver{runtime: "true"}

	cmd, err := command.FromArgv([]string{"echo", "hi"})
	if err != nil {
		t.Fatalf("FromArgv: %v", err)
	}

	spec := &catalog.ContainerSpec{
		Image:       "busybox",
		PreserveApp: true,
	}

	wrapped, err := d.Wrap(cmd, spec)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	hasEcho := false
	for _, a := range wrapped.Args {
		if a == cmd.Binary {
			hasEcho = true
		}
	}
	if !hasEcho {
		t.Fatalf("expected preserved binary %q in args, got %v", cmd.Binary, wrapped.Args)
	}
}

func TestWrapWritesEnvFileWhenOverlayPresent(t *testing.T) {
	d := &Driver{runtime: "true"}

	cmd, err := command.FromArgvWithEnv([]string{"echo", "hi"}, map[string]string{"TOKEN": "abc"})
	if err != nil {
		t.Fatalf("FromArgvWithEnv: %v", err)
	}

	spec := &catalog.ContainerSpec{Image: "busybox"}

	wrapped, err := d.Wrap(cmd, spec)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	defer wrapped.Close()

	hasEnvFile := false
	for _, a := range wrapped.Args {
		if len(a) > len("--env-file=") && a[:len("--env-file=")] == "--env-file=" {
			hasEnvFile = true
			path := a[len("--env-file="):]
			if _, statErr := os.Stat(path); statErr != nil {
				t.Fatalf("expected env file to exist at %q: %v", path, statErr)
			}
		}
	}
	if !hasEnvFile {
		t.Fatalf("expected --env-file argument, got %v", wrapped.Args)
	}
}
