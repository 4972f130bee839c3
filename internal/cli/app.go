// Package cli parses the command line and wires commands to the backend.
package cli

import (
	"context"

	"go.uber.org/zap"

	"taskman/internal/backend/restapi"
	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/session"
	"taskman/internal/transport"
)

// HTTPFactory returns an AppFactory talking to the backend at cfg.Origin.
// newLogger builds the logger for each dispatch from the loaded config.
func HTTPFactory(newLogger func(*config.Config) (*zap.Logger, error), prompter commands.Prompter) AppFactory {
	return func(ctx context.Context, cfg *config.Config) (*commands.App, error) {
		logger, err := newLogger(cfg)
		if err != nil {
			return nil, err
		}
		return NewHTTPApp(cfg, logger, prompter)
	}
}

// NewHTTPApp builds the transport, restores the stored session into its
// cookie jar and wires the controllers.
func NewHTTPApp(cfg *config.Config, logger *zap.Logger, prompter commands.Prompter) (*commands.App, error) {
	redirect := &transport.Redirect{}
	tr, err := transport.New(cfg.Origin,
		transport.WithTimeout(cfg.Timeout),
		transport.WithLoginPath(cfg.LoginPath),
		transport.WithNavigator(redirect),
		transport.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(cfg.SessionPath(), tr.Jar(), tr.BaseURL())
	if err := store.Load(); err != nil {
		logger.Warn("ignoring unreadable session file", zap.String("path", store.Path()), zap.Error(err))
		if err := cfg.RemoveSession(); err != nil {
			return nil, err
		}
	}

	svc := restapi.New(tr)
	app := commands.NewApp(svc, session.NewManager(svc, store, logger), logger)
	app.Prompter = prompter
	app.Redirect = redirect
	return app, nil
}
