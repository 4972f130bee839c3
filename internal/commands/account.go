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
	Register(&MeCmd{})
	Register(&RenameCmd{})
	Register(&PasswdCmd{})
	Register(&QuitCmd{})
}

// MeCmd implements the me command.
type MeCmd struct{}

func (c *MeCmd) Name() string      { return "me" }
func (c *MeCmd) Aliases() []string { return []string{"whoami"} }
func (c *MeCmd) Synopsis() string  { return "Show the signed-in account" }
func (c *MeCmd) Usage() string     { return "taskman me" }
func (c *MeCmd) NeedsAuth() bool   { return true }

func (c *MeCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *MeCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	user, err := app.Profile.Load(ctx)
	if err != nil {
		return report(errOut, err)
	}
	output.FormatUser(out, user)
	return exitcode.Success
}

// RenameCmd implements the rename command.
type RenameCmd struct{}

func (c *RenameCmd) Name() string      { return "rename" }
func (c *RenameCmd) Aliases() []string { return nil }
func (c *RenameCmd) Synopsis() string  { return "Change the account name" }
func (c *RenameCmd) Usage() string     { return "taskman rename <name...>" }
func (c *RenameCmd) NeedsAuth() bool   { return true }

func (c *RenameCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RenameCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fmt.Fprintln(errOut, "error: name required")
		return exitcode.UserError
	}
	if err := app.Profile.Rename(ctx, name); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}

// PasswdCmd implements the passwd command. The new password is always
// prompted for, twice.
type PasswdCmd struct{}

func (c *PasswdCmd) Name() string      { return "passwd" }
func (c *PasswdCmd) Aliases() []string { return nil }
func (c *PasswdCmd) Synopsis() string  { return "Change the account password" }
func (c *PasswdCmd) Usage() string     { return "taskman passwd" }
func (c *PasswdCmd) NeedsAuth() bool   { return true }

func (c *PasswdCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *PasswdCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if app.Prompter == nil {
		fmt.Fprintln(errOut, "error: password required")
		return exitcode.UserError
	}
	first, err := app.Prompter.Password("new password: ")
	if err != nil || first == "" {
		fmt.Fprintln(errOut, "error: password required")
		return exitcode.UserError
	}
	second, err := app.Prompter.Password("repeat password: ")
	if err != nil || second != first {
		fmt.Fprintln(errOut, "error: passwords do not match")
		return exitcode.UserError
	}

	if err := app.Profile.ChangePassword(ctx, first); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}

// QuitCmd implements the quit command, which deletes the account.
type QuitCmd struct {
	yes bool
}

// SetYes sets the confirmation flag (for testing).
func (c *QuitCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *QuitCmd) Name() string      { return "quit" }
func (c *QuitCmd) Aliases() []string { return nil }
func (c *QuitCmd) Synopsis() string  { return "Delete the account and all its tasks" }
func (c *QuitCmd) Usage() string     { return "taskman quit --yes" }
func (c *QuitCmd) NeedsAuth() bool   { return true }

func (c *QuitCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.yes, "yes", "y", false, "confirm account deletion")
}

func (c *QuitCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if !c.yes {
		fmt.Fprintln(errOut, "error: refusing to delete account without --yes")
		return exitcode.UserError
	}
	if err := app.Profile.Quit(ctx); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
