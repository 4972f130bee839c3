package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/output"
	"taskman/internal/search"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the ls command. It also runs for `taskman` with no args.
type ListCmd struct {
	query string
}

// SetQuery sets the filter query (for testing).
func (c *ListCmd) SetQuery(q string) {
	c.query = q
}

func (c *ListCmd) Name() string      { return "ls" }
func (c *ListCmd) Aliases() []string { return []string{"list"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskman ls [--query <text>]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.query, "query", "", "show only tasks whose title contains text")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks, err := app.Tasks.List(ctx)
	if err != nil {
		return report(errOut, err)
	}

	// Numbers are positions in the full listing so they stay valid as
	// references when a query hides some rows.
	visible := search.Filter(tasks, c.query)
	shown := make(map[string]bool, len(visible))
	for _, t := range visible {
		shown[t.ID] = true
	}
	for i, t := range tasks {
		if shown[t.ID] {
			output.FormatTask(out, i+1, t)
		}
	}

	if len(visible) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
