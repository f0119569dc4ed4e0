// Package container drives an external container runtime (docker by
// default) to resolve (pull or build) images and to wrap a local command
// line so it runs inside one.
package container

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/command"
	"github.com/dreadnode/robopages-go/internal/obs"
)

// ErrContainerRuntime wraps any non-zero exit from the runtime binary.
var ErrContainerRuntime = errors.New("container runtime error")

// RuntimeEnvVar names the environment variable that selects the runtime
// binary to shell out to.
const RuntimeEnvVar = "ROBOPAGES_CONTAINER_RUNTIME"

// DefaultRuntime is used when RuntimeEnvVar is unset.
const DefaultRuntime = "docker"

// Runtime reads the configured container runtime binary name.
func Runtime() string {
	if v := os.Getenv(RuntimeEnvVar); v != "" {
		return v
	}
	return DefaultRuntime
}

// Driver resolves and wraps commands for a single container runtime
// binary.
type Driver struct {
	runtime string
}

// NewDriver constructs a Driver bound to the environment-selected runtime.
func NewDriver() *Driver {
	return &Driver{runtime: Runtime()}
}

// Resolve pulls or builds the image described by spec, per §4.2: for an
// Image source, pull only if `<runtime> images -q <ref>` produces no
// output; for a Build source, the dockerfile path must exist and be a
// regular file, and the build context is its parent directory.
func (d *Driver) Resolve(ctx context.Context, spec *catalog.ContainerSpec) error {
	ctx, span := obs.StartSpan(ctx, "container.Resolve")
	defer span.End()

	if spec.IsBuild() {
		return d.build(ctx, spec)
	}
	return d.pull(ctx, spec)
}

func (d *Driver) pull(ctx context.Context, spec *catalog.ContainerSpec) error {
	if _, err := name.ParseReference(spec.Image); err != nil {
		return fmt.Errorf("invalid image reference %q: %w", spec.Image, err)
	}

	out, err := exec.CommandContext(ctx, d.runtime, "images", "-q", spec.Image).Output()
	if err == nil && strings.TrimSpace(string(out)) != "" {
		slog.DebugContext(ctx, "image already present", "image", spec.Image)
		return nil
	}

	args := []string{"pull"}
	if spec.Platform != "" {
		args = append(args, "--platform", spec.Platform)
	}
	args = append(args, spec.Image)

	return d.streamRun(ctx, args)
}

func (d *Driver) build(ctx context.Context, spec *catalog.ContainerSpec) error {
	info, err := os.Stat(spec.BuildPath)
	if err != nil {
		return fmt.Errorf("dockerfile %q does not exist: %w", spec.BuildPath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %q is not a dockerfile", spec.BuildPath)
	}

	contextDir := dirOf(spec.BuildPath)

	args := []string{"build", "-f", spec.BuildPath, "-t", spec.BuildName}
	if spec.Platform != "" {
		args = append(args, "--platform", spec.Platform)
	}
	args = append(args, contextDir)

	slog.InfoContext(ctx, "building image", "name", spec.BuildName, "dockerfile", spec.BuildPath)
	return d.streamRun(ctx, args)
}

// streamRun runs the runtime binary, streaming stdout and stderr
// line-by-line to the structured logger as they arrive, per the teacher's
// applecontainer subprocess-streaming idiom.
func (d *Driver) streamRun(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, d.runtime, args...)
	slog.InfoContext(ctx, "running container runtime", "cmd", strings.Join(cmd.Args, " "))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan struct{}, 2)
	streamLines := func(r *bufio.Scanner) {
		for r.Scan() {
			slog.InfoContext(ctx, r.Text())
		}
		done <- struct{}{}
	}
	go streamLines(bufio.NewScanner(stdout))
	go streamLines(bufio.NewScanner(stderr))
	<-done
	<-done

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: %s", ErrContainerRuntime, err)
	}
	return nil
}

// Wrap produces a new *command.Command that runs cmd inside the container
// described by spec: `<runtime> run --rm [--env-file=<f>] [-v<vol>]... [extra
// args]... <image> [original binary, if preserve_app] <original args>`.
func (d *Driver) Wrap(cmd *command.Command, spec *catalog.ContainerSpec) (*command.Command, error) {
	runtimePath, err := exec.LookPath(d.runtime)
	if err != nil {
		return nil, fmt.Errorf("%s executable not found: %w", d.runtime, err)
	}

	args := []string{"run", "--rm"}

	var cleanup func() error
	if len(cmd.Env) > 0 {
		envFile, err := writeEnvFile(cmd.Env)
		if err != nil {
			return nil, err
		}
		args = append(args, "--env-file="+envFile)
		cleanup = func() error { return os.Remove(envFile) }
	}

	for _, v := range spec.Volumes {
		args = append(args, "-v"+v)
	}

	args = append(args, spec.Args...)
	args = append(args, spec.ImageRef())

	if spec.PreserveApp {
		args = append(args, cmd.Binary)
	}
	args = append(args, cmd.Args...)

	wrapped := &command.Command{
		Binary: runtimePath,
		InPath: true,
		Args:   args,
	}
	if cleanup != nil {
		wrapped.SetCleanup(cleanup)
	}
	return wrapped, nil
}

func writeEnvFile(env map[string]string) (string, error) {
	f, err := os.CreateTemp("", "robopages-env-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp env file: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, k := range sortedKeys(env) {
		fmt.Fprintf(&b, "%s=%s\n", k, env[k])
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return "", fmt.Errorf("failed to write env file: %w", err)
	}
	return f.Name(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// simple insertion sort: these maps are tiny (one overlay per call)
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func dirOf(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return "."
	}
	return p[:idx]
}
