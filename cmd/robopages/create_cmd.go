package main

import (
	"fmt"

	"github.com/dreadnode/robopages-go/internal/scaffold"
)

// CreateCmd scaffolds a new page YAML file from a built-in template.
type CreateCmd struct {
	Page     string `arg:"" help:"page name"`
	Template string `arg:"" optional:"" enum:"basic,http,net" default:"basic" help:"template to scaffold from"`
	Function string `help:"function name (random if omitted)"`
	Output   string `short:"o" placeholder:"<path>" help:"output file path (defaults to <page>.yml)"`
}

func (c *CreateCmd) Run(cli *CLI) error {
	dest := c.Output
	if dest == "" {
		dest = c.Page + ".yml"
	}
	if err := scaffold.Create(c.Template, c.Page, c.Function, dest); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	return nil
}
