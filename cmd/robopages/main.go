package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	kongcompletion "github.com/jotaen/kong-completion"
	"github.com/posener/complete"

	"github.com/dreadnode/robopages-go/internal/config"
)

// CLI is the top-level kong command tree: one subcommand per collaborator
// (serve, run, install, create, view), plus shell-completion wiring
// matching the teacher's cmd/sand layout.
type CLI struct {
	CatalogPath string `default:"~/.robopages/" placeholder:"<path>" help:"directory or file to load function pages from"`
	LogLevel    string `default:"info" placeholder:"<debug|info|warn|error>" help:"the logging level"`

	Serve   ServeCmd   `cmd:"" help:"start the HTTP server exposing the catalog and call execution"`
	Run     RunCmd     `cmd:"" help:"execute a single function directly, without starting a server"`
	Install InstallCmd `cmd:"" help:"install a page catalog from a GitHub repo, URL, or local zip"`
	Create  CreateCmd  `cmd:"" help:"scaffold a new page YAML file from a template"`
	View    ViewCmd    `cmd:"" help:"print the loaded catalog as a table"`

	InstallCompletions kongcompletion.InstallCompletions `cmd:"" help:"install shell completions"`
}

const description = `Expose shell-executable functions to agent tool-calling frameworks.

Loads a YAML catalog of functions and runs them locally, in a container, or over SSH.`

func initLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func main() {
	var cli CLI

	opts := []kong.Option{kong.Description(description)}
	if cfgOption, err := config.Resolver(config.DefaultPath); err == nil {
		opts = append(opts, cfgOption)
	}

	parser, err := kong.New(&cli, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	kongcompletion.Register(parser, kongcompletion.WithPredictor("catalog-path", complete.PredictFiles("*.yml")))

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	initLogging(cli.LogLevel)

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
