package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"taskman/internal/config"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskman rm <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return report(errOut, err)
	}

	task, err := ResolveTask(ctx, app.Tasks, ref)
	if err != nil {
		return report(errOut, err)
	}
	if err := app.Tasks.Remove(ctx, task.ID); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
