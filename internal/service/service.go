// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All backend calls go through this interface.
// Commands and controllers never import the HTTP layer directly.
type Service interface {
	// ListTasks returns the signed-in user's tasks in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// SearchTasks returns the tasks matching q, as decided by the server.
	SearchTasks(ctx context.Context, q string) ([]Task, error)

	// CreateTask creates a task with the given title. New tasks are not done.
	CreateTask(ctx context.Context, title string) error

	// UpdateTask replaces both mutable fields of a task.
	UpdateTask(ctx context.Context, id, title string, isDone bool) error

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error

	// SignIn starts a session. The session cookie is kept by the transport.
	SignIn(ctx context.Context, creds Credentials) error

	// SignUp creates an account and returns its ID.
	SignUp(ctx context.Context, creds Credentials) (string, error)

	// SignOut ends the session.
	SignOut(ctx context.Context) error

	// Me returns the signed-in user.
	Me(ctx context.Context) (User, error)

	// UpdateName renames the signed-in user.
	UpdateName(ctx context.Context, name string) error

	// UpdatePassword changes the signed-in user's password.
	UpdatePassword(ctx context.Context, password string) error

	// Quit deletes the signed-in user's account.
	Quit(ctx context.Context) error
}
