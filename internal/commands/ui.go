package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/transport"
	"taskman/internal/ui"
)

func init() {
	Register(&UICmd{})
}

// UICmd implements the ui command, the interactive task table.
type UICmd struct{}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return []string{"tui"} }
func (c *UICmd) Synopsis() string  { return "Open the interactive task table" }
func (c *UICmd) Usage() string     { return "taskman ui" }
func (c *UICmd) NeedsAuth() bool   { return false }

func (c *UICmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	redirect := app.Redirect
	if redirect == nil {
		redirect = &transport.Redirect{}
	}
	deps := ui.Deps{
		Tasks:   app.Tasks,
		Session: app.Session,
		Profile: app.Profile,
		Remote:  app.Remote,
		Logger:  app.Logger,
	}
	if err := ui.Run(ctx, deps, app.Session.LoggedIn(), redirect); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
