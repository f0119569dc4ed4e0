// Package viewer prints a loaded catalog as a human-readable table, in the
// same text/tabwriter style as the teacher's ls_cmd.go, truncating long
// descriptions to the detected terminal width.
package viewer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/dreadnode/robopages-go/internal/catalog"
)

// defaultWidth is used when the output isn't a terminal (piped to a file,
// for instance) or term.GetSize fails.
const defaultWidth = 100

// Print writes a table of every function in cat to w: page, function name,
// description, and a comma-joined parameter list.
func Print(w io.Writer, cat *catalog.Catalog) {
	width := terminalWidth()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tFUNCTION\tPARAMETERS\tDESCRIPTION")

	for _, entry := range cat.Pages() {
		for _, name := range entry.Page.SortedFunctionNames() {
			fn := entry.Page.Functions[name]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				entry.Page.Name,
				name,
				paramList(fn),
				truncate(fn.Description, width),
			)
		}
	}

	tw.Flush()
}

func paramList(fn *catalog.Function) string {
	names := fn.SortedParameterNames()
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func terminalWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
