// Package command models a resolved, executable argv: the thing an
// execution plan (internal/plan) ultimately hands to a local process or
// wraps for a container/remote run.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// ErrEmptyArgv is returned when a Command is constructed from a zero-length
// argument vector.
var ErrEmptyArgv = errors.New("empty command line")

// Command is a parsed argv ready to execute: a binary, its arguments, a
// sudo marker, PATH-resolution status, and an environment overlay captured
// while resolving argument templates (see internal/catalog's resolver).
type Command struct {
	Sudo    bool
	Binary  string
	InPath  bool
	Args    []string
	Env     map[string]string
	cleanup func() error
}

// FromArgv scans argv left to right: a leading literal "sudo" sets Sudo and
// is consumed, the next token becomes Binary, the remainder become Args.
// Binary is resolved against the process PATH; if found it is rewritten to
// its absolute form and InPath is true, otherwise InPath is false and
// construction still succeeds — deciding what to do about it is the
// execution planner's job, not this constructor's.
func FromArgv(argv []string) (*Command, error) {
	return FromArgvWithEnv(argv, nil)
}

// FromArgvWithEnv is FromArgv plus a pre-populated environment overlay
// (used when the argument resolver has already captured ${env.*} lookups).
func FromArgvWithEnv(argv []string, env map[string]string) (*Command, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyArgv
	}

	var sudo bool
	var binary string
	var args []string

	for _, tok := range argv {
		switch {
		case tok == "sudo" && binary == "":
			sudo = true
		case binary == "":
			binary = tok
		default:
			args = append(args, tok)
		}
	}

	if binary == "" {
		return nil, fmt.Errorf("could not determine binary from command line: %v", argv)
	}

	inPath := false
	if resolved, err := exec.LookPath(binary); err == nil {
		binary = resolved
		inPath = true
	}

	overlay := make(map[string]string, len(env))
	for k, v := range env {
		overlay[k] = v
	}

	return &Command{
		Sudo:   sudo,
		Binary: binary,
		InPath: inPath,
		Args:   args,
		Env:    overlay,
	}, nil
}

// SetCleanup attaches a release function (e.g. removing a temp env-file)
// that Close runs exactly once. The command exclusively owns this handle;
// nothing else may release it.
func (c *Command) SetCleanup(fn func() error) {
	c.cleanup = fn
}

// Close releases any resource owned by the command (currently: a
// container env-file). Safe to call multiple times.
func (c *Command) Close() error {
	if c.cleanup == nil {
		return nil
	}
	fn := c.cleanup
	c.cleanup = nil
	return fn()
}

func (c *Command) interpolatedArgs() []string {
	if len(c.Env) == 0 {
		return c.Args
	}

	out := make([]string, len(c.Args))
	for i, arg := range c.Args {
		result := arg
		for key, value := range c.Env {
			pattern := "${" + key + "}"
			if strings.Contains(result, pattern) {
				result = strings.ReplaceAll(result, pattern, value)
			}
		}
		out[i] = result
	}
	return out
}

// BuildExecCmd constructs the *exec.Cmd this command would run, with
// argument interpolation and the environment overlay applied, but does not
// start it. Used by callers that need to attach something Execute doesn't
// support directly, such as a pty.
func (c *Command) BuildExecCmd(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Binary, c.interpolatedArgs()...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), sortedEnvPairs(c.Env)...)
	}
	return cmd
}

// Execute spawns Binary (never the "sudo" literal — sudo is a signal to the
// planner only) with the environment overlay exported into the child
// process, waits for completion, and joins whichever of "EXIT CODE: <n>"
// (only on failure), stdout, and stderr (prefixed "ERROR: " only on
// failure) are non-empty, separated by a single newline.
func (c *Command) Execute(ctx context.Context) (string, error) {
	defer c.Close()

	cmd := exec.CommandContext(ctx, c.Binary, c.interpolatedArgs()...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), sortedEnvPairs(c.Env)...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var parts []string
	exitCode := 0
	failed := false
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
			failed = true
		} else {
			return "", fmt.Errorf("executing %s: %w", c.Binary, runErr)
		}
	}

	if failed {
		parts = append(parts, fmt.Sprintf("EXIT CODE: %d", exitCode))
	}

	if out := stdout.String(); out != "" {
		parts = append(parts, out)
	}

	if errOut := stderr.String(); errOut != "" {
		if failed {
			parts = append(parts, "ERROR: "+errOut)
		} else {
			parts = append(parts, errOut)
		}
	}

	return strings.Join(parts, "\n"), nil
}

// String renders the command the way it would be typed at a shell,
// including a leading "sudo" if set. Used for logging.
func (c *Command) String() string {
	var b strings.Builder
	if c.Sudo {
		b.WriteString("sudo ")
	}
	b.WriteString(c.Binary)
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	return b.String()
}

func sortedEnvPairs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
