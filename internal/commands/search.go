package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/output"
)

func init() {
	Register(&SearchCmd{})
}

// SearchCmd implements the search command. Matching is done by the server,
// unlike ls --query.
type SearchCmd struct{}

func (c *SearchCmd) Name() string      { return "search" }
func (c *SearchCmd) Aliases() []string { return []string{"find"} }
func (c *SearchCmd) Synopsis() string  { return "Search tasks on the server" }
func (c *SearchCmd) Usage() string     { return "taskman search <query...>" }
func (c *SearchCmd) NeedsAuth() bool   { return true }

func (c *SearchCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *SearchCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(errOut, "error: query required")
		return exitcode.UserError
	}

	app.Remote.Activate()
	defer app.Remote.Deactivate()

	tasks, err := app.Remote.SetQuery(ctx, query)
	if err != nil {
		return report(errOut, err)
	}

	for i, t := range tasks {
		output.FormatTask(out, i+1, t)
	}
	if len(tasks) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
