// Package config resolves persistent CLI defaults from
// ~/.robopages/config.yaml via kong-yaml, the same role kong.Configuration
// plays for the teacher's JSON config file.
package config

import (
	"os"
	"path/filepath"

	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/alecthomas/kong"
	homedir "github.com/mitchellh/go-homedir"
)

// DefaultPath is where robopages looks for persistent configuration.
const DefaultPath = "~/.robopages/config.yaml"

// Resolver builds the kong.Option that wires the YAML config file into a
// kong.CLI parse, matching the way cmd/sand/main.go wires
// kong.Configuration(kong.JSON, ...).
func Resolver(path string) (kong.Option, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return kong.Configuration(kongyaml.Loader, expanded), nil
}

// EnsureDir creates the parent directory of path (by default
// ~/.robopages/) so a first-run config write has somewhere to land.
func EnsureDir(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(expanded), 0o755)
}
