// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskman/internal/service"
	"taskman/internal/tasklist"
	"taskman/internal/transport"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task, empty input).
	UserError = 1

	// AuthError indicates a missing or rejected session.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromError maps an operation error to an exit code.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, tasklist.ErrUnknownTask),
		errors.Is(err, transport.ErrNotFound):
		return UserError
	case errors.Is(err, transport.ErrUnauthorized):
		return AuthError
	}
	return BackendError
}
