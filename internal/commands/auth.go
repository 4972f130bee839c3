package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
	"taskman/internal/transport"
)

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
	Register(&LogoutCmd{})
}

// readCredentials fills in whatever the flags left out by prompting.
func readCredentials(p Prompter, name string) (service.Credentials, error) {
	if p == nil {
		return service.Credentials{}, ErrNoInput
	}
	var err error
	if name == "" {
		if name, err = p.Prompt("name: "); err != nil {
			return service.Credentials{}, err
		}
	}
	password, err := p.Password("password: ")
	if err != nil {
		return service.Credentials{}, err
	}
	return service.Credentials{Name: strings.TrimSpace(name), Password: password}, nil
}

// credentialError prints a failed sign in or sign up. A 401 here means
// the credentials were refused, not that a session expired.
func credentialError(errOut io.Writer, action string, err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, ErrNoInput):
		fmt.Fprintln(errOut, "error: name and password required")
		return exitcode.UserError
	case errors.Is(err, transport.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: %s failed: invalid name or password\n", action)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: %s failed: %v\n", action, err)
	return exitcode.FromError(err)
}

// LoginCmd implements the login command.
type LoginCmd struct {
	name string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store the session" }
func (c *LoginCmd) Usage() string     { return "taskman login [--name <name>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.name, "name", "n", "", "account name")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if c.name == "" && app.Session.LoggedIn() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	creds, err := readCredentials(app.Prompter, c.name)
	if err == nil {
		err = app.Session.SignIn(ctx, creds)
	}
	if err != nil {
		return credentialError(errOut, "sign in", err)
	}
	return ok(cfg, out)
}

// SignupCmd implements the signup command. It creates the account but does
// not sign in.
type SignupCmd struct {
	name string
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string     { return "taskman signup [--name <name>]" }
func (c *SignupCmd) NeedsAuth() bool   { return false }

func (c *SignupCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.name, "name", "n", "", "account name")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	creds, err := readCredentials(app.Prompter, c.name)
	if err == nil {
		_, err = app.Session.SignUp(ctx, creds)
	}
	if err != nil {
		return credentialError(errOut, "sign up", err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "ok (run: %s login)\n", config.AppName)
	}
	return exitcode.Success
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string  { return "Sign out and remove the stored session" }
func (c *LogoutCmd) Usage() string     { return "taskman logout" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if !app.Session.LoggedIn() {
		if err := app.Session.Forget(); err != nil {
			fmt.Fprintf(errOut, "error: failed to remove session: %v\n", err)
			return exitcode.AuthError
		}
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := app.Session.SignOut(ctx); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
