package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/exitcode"
)

// AppFactory builds the App for a loaded config.
// Used to inject the backend during dispatch.
type AppFactory func(ctx context.Context, cfg *config.Config) (*commands.App, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  AppFactory
}

// NewDispatcher creates a new dispatcher with the given registry and app factory.
func NewDispatcher(registry *commands.Registry, factory AppFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> list everything
	if len(args) == 0 {
		return d.dispatch(ctx, "ls", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	var common commonFlags
	code := exitcode.Success

	// One cobra command per dispatch. Names and aliases come from the registry.
	c := &cobra.Command{
		Use:                   cmd.Name(),
		Short:                 cmd.Synopsis(),
		Args:                  cobra.ArbitraryArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE: func(c *cobra.Command, positional []string) error {
			code = d.execute(c.Context(), cmd, common, positional, out, errOut)
			return nil
		},
	}
	if args == nil {
		args = []string{}
	}
	c.SetArgs(args)
	c.SetOut(out)
	c.SetErr(errOut)
	c.SetHelpFunc(func(*cobra.Command, []string) {
		fmt.Fprintf(out, "usage: %s\n", cmd.Usage())
	})

	fs := c.Flags()
	fs.StringVar(&common.configDir, "config", "", "override config directory")
	fs.BoolVarP(&common.quiet, "quiet", "q", false, "suppress informational output")
	fs.BoolVar(&common.debug, "debug", false, "print debug logs to stderr")
	cmd.RegisterFlags(fs)

	if err := c.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	return code
}

func (d *Dispatcher) execute(ctx context.Context, cmd commands.Command, common commonFlags, args []string, out, errOut io.Writer) int {
	cfg, err := config.Load(common.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug

	app := &commands.App{Logger: zap.NewNop()}
	if d.factory != nil {
		if app, err = d.factory(ctx, cfg); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.BackendError
		}
	}

	if cmd.NeedsAuth() && app.Session != nil && !app.Session.LoggedIn() {
		fmt.Fprintf(errOut, "error: not logged in (run: %s login)\n", config.AppName)
		return exitcode.AuthError
	}

	// A rejected session is forgotten so the next run asks for login
	// instead of replaying the dead cookie. The command reports the error.
	if app.Redirect != nil && app.Session != nil {
		sm, logger := app.Session, app.Logger
		app.Redirect.Set(func(path string) {
			logger.Debug("session rejected", zap.String("login", path))
			if err := sm.Forget(); err != nil {
				logger.Warn("failed to forget session", zap.Error(err))
			}
		})
	}

	return cmd.Run(ctx, cfg, app, args, out, errOut)
}
