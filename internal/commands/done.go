package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"taskman/internal/config"
)

func init() {
	Register(&DoneCmd{done: true})
	Register(&DoneCmd{done: false})
}

// DoneCmd implements the done and undo commands. Both send the task's
// current title along with the new state.
type DoneCmd struct {
	done bool
}

// NewDoneCmd returns the done command, or undo when done is false.
func NewDoneCmd(done bool) *DoneCmd {
	return &DoneCmd{done: done}
}

func (c *DoneCmd) Name() string {
	if c.done {
		return "done"
	}
	return "undo"
}

func (c *DoneCmd) Aliases() []string {
	if c.done {
		return []string{"check"}
	}
	return []string{"uncheck"}
}

func (c *DoneCmd) Synopsis() string {
	if c.done {
		return "Mark a task done"
	}
	return "Mark a task not done"
}

func (c *DoneCmd) Usage() string   { return "taskman " + c.Name() + " <ref>" }
func (c *DoneCmd) NeedsAuth() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return report(errOut, err)
	}

	task, err := ResolveTask(ctx, app.Tasks, ref)
	if err != nil {
		return report(errOut, err)
	}
	if err := app.Tasks.SetDone(ctx, task.ID, c.done); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
