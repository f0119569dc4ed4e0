package main

import (
	"fmt"

	"github.com/dreadnode/robopages-go/internal/installer"
)

// InstallCmd fetches a page catalog from a GitHub shorthand ("user/repo"),
// a direct URL, or a local zip archive, and unpacks it into Dest.
type InstallCmd struct {
	Source string `arg:"" help:"GitHub shorthand (user/repo), URL, or local .zip path"`
	Dest   string `default:"~/.robopages/" placeholder:"<path>" help:"destination directory"`
}

func (c *InstallCmd) Run(cli *CLI) error {
	if err := installer.Install(c.Source, c.Dest); err != nil {
		return fmt.Errorf("installing %s: %w", c.Source, err)
	}
	return nil
}
