package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creack/pty"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/executor"
	"github.com/dreadnode/robopages-go/internal/flavor"
	"github.com/dreadnode/robopages-go/internal/obs"
	"github.com/dreadnode/robopages-go/internal/plan"
	"github.com/dreadnode/robopages-go/internal/remote"
)

// RunCmd executes a single function directly, bypassing the HTTP server —
// the equivalent of the teacher's one-shot cmd/sand subcommands that run a
// single operation and print the result rather than serving a daemon.
type RunCmd struct {
	Function string   `arg:"" help:"the function to run, e.g. nmap.scan"`
	Define   []string `short:"d" help:"parameter value as key=value, repeatable"`
	Auto     bool     `help:"skip the interactive confirmation prompt"`
	TTY      bool     `help:"wrap local execution in a pty for interactive commands (ssh, shells, REPLs)"`

	RemoteSpec       string `help:"optional [user@]host[:port] to run this function on remotely"`
	RemoteKeyPath    string `default:"~/.ssh/id_ed25519" help:"SSH private key for --remote-spec"`
	RemotePassphrase string `help:"passphrase for the SSH private key, if encrypted"`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx := context.Background()

	shutdownTracing, err := obs.Setup(ctx, "robopages")
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	cat, err := catalog.Load(cli.CatalogPath, nil)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	params, err := parseDefines(c.Define)
	if err != nil {
		return err
	}

	var rem *remote.Remote
	if c.RemoteSpec != "" {
		rem, err = remote.Parse(c.RemoteSpec, c.RemoteKeyPath, c.RemotePassphrase)
		if err != nil {
			return fmt.Errorf("parsing --remote-spec: %w", err)
		}
	}

	if c.TTY && rem == nil {
		return c.runPTY(ctx, cat, params)
	}

	ex := executor.New(cat, plan.NewPlanner(), rem, !c.Auto, 1)
	results, err := ex.Run(ctx, []flavor.Call{{
		Function: flavor.CallFunction{Name: c.Function, Arguments: params},
	}})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, results[0].Content)
	return nil
}

// runPTY resolves the function's argv and runs it directly, attached to a
// pseudo-terminal, for commands (shells, ssh sessions, REPLs) that need a
// real tty rather than piped stdout/stderr. It bypasses the container and
// remote planning paths entirely: a pty-wrapped command only makes sense
// run directly against the local host.
func (c *RunCmd) runPTY(ctx context.Context, cat *catalog.Catalog, params map[string]string) error {
	ref, err := cat.GetFunction(c.Function)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", c.Function, err)
	}
	if err := catalog.ValidateArguments(ref.Function, params); err != nil {
		return err
	}
	cmd, err := catalog.ResolveCommand(ref.Function, params)
	if err != nil {
		return err
	}

	execCmd := cmd.BuildExecCmd(ctx)
	ptmx, err := pty.Start(execCmd)
	if err != nil {
		return fmt.Errorf("starting pty: %w", err)
	}
	defer ptmx.Close()

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, syscall.SIGWINCH)
	defer signal.Stop(resize)
	go func() {
		for range resize {
			_ = pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	resize <- syscall.SIGWINCH

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptmx)

	return execCmd.Wait()
}

// parseDefines turns repeated --define key=value flags into a parameter map.
func parseDefines(defines []string) (map[string]string, error) {
	params := make(map[string]string, len(defines))
	for _, d := range defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --define %q: expected key=value", d)
		}
		params[name] = value
	}
	return params, nil
}
