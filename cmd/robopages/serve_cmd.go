package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/container"
	"github.com/dreadnode/robopages-go/internal/executor"
	"github.com/dreadnode/robopages-go/internal/obs"
	"github.com/dreadnode/robopages-go/internal/plan"
	"github.com/dreadnode/robopages-go/internal/remote"
	"github.com/dreadnode/robopages-go/internal/server"
)

// ServeCmd starts the HTTP server. Unless Lazy is set, every function's
// container image is pre-resolved (pulled/built) at startup, matching the
// original CLI's `serve` default.
type ServeCmd struct {
	Addr        string `default:":8080" help:"address to listen on"`
	Lazy        bool   `help:"skip pre-warming container images at startup"`
	Workers     int64  `default:"0" help:"max concurrently-running calls (0 = number of CPUs)"`
	Interactive bool   `help:"prompt for confirmation before executing each call"`
	LogFile     string `help:"rotate logs to this file instead of stderr (recommended for long-running serve)"`

	RemoteSpec       string `help:"optional [user@]host[:port] to run functions on remotely"`
	RemoteKeyPath    string `default:"~/.ssh/id_ed25519" help:"SSH private key for --remote-spec"`
	RemotePassphrase string `help:"passphrase for the SSH private key, if encrypted"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	if c.LogFile != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
		}, nil)))
	}

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
	slog.InfoContext(ctx, "catalog loaded", "pages", cat.Size())

	if !c.Lazy {
		if err := prewarm(ctx, cat); err != nil {
			return fmt.Errorf("pre-warming containers: %w", err)
		}
	}

	var rem *remote.Remote
	if c.RemoteSpec != "" {
		rem, err = remote.Parse(c.RemoteSpec, c.RemoteKeyPath, c.RemotePassphrase)
		if err != nil {
			return fmt.Errorf("parsing --remote-spec: %w", err)
		}
		if err := rem.Test(ctx); err != nil {
			return fmt.Errorf("remote reachability check failed: %w", err)
		}
	}

	workers := c.Workers
	if workers <= 0 {
		workers = int64(runtime.GOMAXPROCS(0))
	}

	ex := executor.New(cat, plan.NewPlanner(), rem, c.Interactive, workers)
	srv := server.New(cat, ex)

	slog.InfoContext(ctx, "serving", "addr", c.Addr)
	return http.ListenAndServe(c.Addr, srv.Handler())
}

// prewarm resolves every function's container image before serving begins,
// logging each function (with its page and image) before resolving it so a
// slow pull doesn't look like a hang.
func prewarm(ctx context.Context, cat *catalog.Catalog) error {
	driver := container.NewDriver()
	for _, entry := range cat.Pages() {
		for name, fn := range entry.Page.Functions {
			if fn.Container == nil {
				continue
			}
			slog.InfoContext(ctx, "pre-warming container", "page", entry.Page.Name, "function", name, "image", fn.Container.ImageRef())
			if err := driver.Resolve(ctx, fn.Container); err != nil {
				return fmt.Errorf("function %s: %w", name, err)
			}
		}
	}
	return nil
}
