// Package profile manages the signed-in user's account page.
package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskman/internal/service"
	"taskman/internal/session"
)

var (
	// ErrEmptyName is returned by Rename for a blank name. No request is sent.
	ErrEmptyName = fmt.Errorf("%w: name required", service.ErrValidation)

	// ErrEmptyPassword is returned by ChangePassword for an empty password.
	ErrEmptyPassword = fmt.Errorf("%w: password required", service.ErrValidation)
)

// Controller holds the profile fields shown to the user.
type Controller struct {
	svc     service.Service
	session *session.Manager
	logger  *zap.Logger

	mu   sync.RWMutex
	user service.User
}

// New creates a profile controller with blank fields.
func New(svc service.Service, sm *session.Manager, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{svc: svc, session: sm, logger: logger.Named("profile")}
}

// User returns the last loaded user. Fields are blank until Load succeeds.
func (c *Controller) User() service.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Load fetches the signed-in user. On failure the fields are left blank.
func (c *Controller) Load(ctx context.Context) (service.User, error) {
	user, err := c.svc.Me(ctx)
	if err != nil {
		c.logger.Error("failed to load profile", zap.Error(err))
		c.mu.Lock()
		c.user = service.User{}
		c.mu.Unlock()
		return service.User{}, err
	}
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return user, nil
}

// Rename changes the account name, then reloads the profile.
func (c *Controller) Rename(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if err := c.svc.UpdateName(ctx, name); err != nil {
		c.logger.Error("failed to update name", zap.Error(err))
		return err
	}
	if _, err := c.Load(ctx); err != nil {
		return fmt.Errorf("reload profile: %w", err)
	}
	return nil
}

// ChangePassword sets a new password.
func (c *Controller) ChangePassword(ctx context.Context, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if err := c.svc.UpdatePassword(ctx, password); err != nil {
		c.logger.Error("failed to update password", zap.Error(err))
		return err
	}
	return nil
}

// SignOut ends the session.
func (c *Controller) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.user = service.User{}
	c.mu.Unlock()
	return c.session.SignOut(ctx)
}

// Quit deletes the account, then forgets the local session.
func (c *Controller) Quit(ctx context.Context) error {
	if err := c.svc.Quit(ctx); err != nil {
		c.logger.Error("failed to delete account", zap.Error(err))
		return err
	}
	c.mu.Lock()
	c.user = service.User{}
	c.mu.Unlock()
	return c.session.Forget()
}
