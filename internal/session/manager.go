package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"taskman/internal/service"
)

// Manager runs the authentication flows and keeps the store in step.
type Manager struct {
	svc    service.Service
	store  *Store
	logger *zap.Logger
}

// NewManager creates a manager.
func NewManager(svc service.Service, store *Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{svc: svc, store: store, logger: logger.Named("session")}
}

// Store returns the underlying store.
func (m *Manager) Store() *Store { return m.store }

// SignIn validates creds, signs in and persists the session cookie.
func (m *Manager) SignIn(ctx context.Context, creds service.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := m.svc.SignIn(ctx, creds); err != nil {
		return err
	}
	if err := m.store.Save(); err != nil {
		m.logger.Warn("failed to persist session", zap.Error(err))
		return err
	}
	return nil
}

// SignUp validates creds and creates an account. It does not sign in.
func (m *Manager) SignUp(ctx context.Context, creds service.Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	return m.svc.SignUp(ctx, creds)
}

// SignOut ends the session on the server and forgets it locally. The local
// session is cleared even if the server call fails.
func (m *Manager) SignOut(ctx context.Context) error {
	err := m.svc.SignOut(ctx)
	if err != nil {
		m.logger.Warn("server sign out failed", zap.Error(err))
	}
	return errors.Join(err, m.store.Clear())
}

// Forget clears the local session without calling the server.
func (m *Manager) Forget() error {
	return m.store.Clear()
}

// LoggedIn reports whether an unexpired session is held.
func (m *Manager) LoggedIn() bool {
	return m.store.Valid(time.Now())
}
