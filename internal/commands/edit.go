package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskman/internal/config"
	"taskman/internal/exitcode"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command, which retitles a task.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"mv"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title" }
func (c *EditCmd) Usage() string     { return "taskman edit <ref> <title...>" }
func (c *EditCmd) NeedsAuth() bool   { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return report(errOut, err)
	}

	title := strings.Join(args[1:], " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	task, err := ResolveTask(ctx, app.Tasks, ref)
	if err != nil {
		return report(errOut, err)
	}
	if err := app.Tasks.SetTitle(ctx, task.ID, title); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
