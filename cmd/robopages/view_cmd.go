package main

import (
	"fmt"
	"os"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/viewer"
)

// ViewCmd loads the catalog and prints it as a table, for a quick sanity
// check of what functions are available before serving or running them.
type ViewCmd struct {
	Filter string `help:"only show pages whose path contains this substring"`
}

func (c *ViewCmd) Run(cli *CLI) error {
	var filter *string
	if c.Filter != "" {
		filter = &c.Filter
	}

	cat, err := catalog.Load(cli.CatalogPath, filter)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	viewer.Print(os.Stdout, cat)
	return nil
}
