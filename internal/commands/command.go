// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"taskman/internal/config"
	"taskman/internal/profile"
	"taskman/internal/search"
	"taskman/internal/service"
	"taskman/internal/session"
	"taskman/internal/tasklist"
	"taskman/internal/transport"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a stored session.
	// Commands like help, version, login, signup return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int
}

// App holds the controllers commands operate on.
type App struct {
	Session  *session.Manager
	Tasks    *tasklist.Controller
	Profile  *profile.Controller
	Remote   *search.Remote
	Prompter Prompter
	Logger   *zap.Logger

	// Redirect receives login navigations from the transport. Nil when the
	// service is not backed by HTTP.
	Redirect *transport.Redirect
}

// NewApp builds the controllers over svc. sm may be nil for commands that
// never touch the session.
func NewApp(svc service.Service, sm *session.Manager, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{
		Session: sm,
		Tasks:   tasklist.New(svc, logger),
		Remote:  search.NewRemote(svc),
		Logger:  logger,
	}
	if sm != nil {
		app.Profile = profile.New(svc, sm, logger)
	}
	return app
}
