// Package restapi implements the service.Service interface against the task
// backend's REST API.
package restapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"taskman/internal/service"
	"taskman/internal/transport"
)

// Request bodies use the server's snake_case field names; responses arrive
// already normalized to camelCase by the transport.
type (
	createTaskRequest struct {
		Title string `json:"title"`
	}

	updateTaskRequest struct {
		Title  string `json:"title"`
		IsDone bool   `json:"is_done"`
	}

	updateNameRequest struct {
		Name string `json:"name"`
	}

	updatePasswordRequest struct {
		Password string `json:"password"`
	}

	signUpResponse struct {
		ID string `json:"id"`
	}
)

// Client implements service.Service over a transport.Client.
type Client struct {
	tr *transport.Client
}

// New creates a backend client sending requests through tr.
func New(tr *transport.Client) *Client {
	return &Client{tr: tr}
}

// ListTasks returns the signed-in user's tasks in server order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	resp, err := c.tr.Get(ctx, "/tasks")
	if err != nil {
		return nil, wrapError("list tasks", err)
	}
	tasks := []service.Task{}
	if err := resp.Decode(&tasks); err != nil {
		return nil, wrapError("list tasks", err)
	}
	return tasks, nil
}

// SearchTasks asks the server for tasks matching q.
func (c *Client) SearchTasks(ctx context.Context, q string) ([]service.Task, error) {
	resp, err := c.tr.Get(ctx, "/search?q="+url.QueryEscape(q))
	if err != nil {
		return nil, wrapError("search tasks", err)
	}
	tasks := []service.Task{}
	if err := resp.Decode(&tasks); err != nil {
		return nil, wrapError("search tasks", err)
	}
	return tasks, nil
}

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, title string) error {
	_, err := c.tr.Post(ctx, "/tasks", createTaskRequest{Title: title})
	return wrapError("create task", err)
}

// UpdateTask replaces the title and done flag of a task.
func (c *Client) UpdateTask(ctx context.Context, id, title string, isDone bool) error {
	_, err := c.tr.Put(ctx, "/tasks/"+url.PathEscape(id), updateTaskRequest{
		Title:  title,
		IsDone: isDone,
	})
	return wrapError("update task", err)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.tr.Delete(ctx, "/tasks/"+url.PathEscape(id))
	return wrapError("delete task", err)
}

// SignIn starts a session; the cookie lands in the transport's jar.
func (c *Client) SignIn(ctx context.Context, creds service.Credentials) error {
	if _, err := c.tr.Post(ctx, "/auth/signin", creds); err != nil {
		return wrapError("sign in", err)
	}
	c.tr.ResetAuth()
	return nil
}

// SignUp creates an account and returns its ID.
func (c *Client) SignUp(ctx context.Context, creds service.Credentials) (string, error) {
	resp, err := c.tr.Post(ctx, "/auth/signup", creds)
	if err != nil {
		return "", wrapError("sign up", err)
	}
	var res signUpResponse
	if err := resp.Decode(&res); err != nil {
		return "", wrapError("sign up", err)
	}
	return res.ID, nil
}

// SignOut ends the session.
func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.tr.Post(ctx, "/auth/signout", nil)
	return wrapError("sign out", err)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (service.User, error) {
	resp, err := c.tr.Get(ctx, "/users/me")
	if err != nil {
		return service.User{}, wrapError("get user", err)
	}
	var user service.User
	if err := resp.Decode(&user); err != nil {
		return service.User{}, wrapError("get user", err)
	}
	return user, nil
}

// UpdateName renames the signed-in user.
func (c *Client) UpdateName(ctx context.Context, name string) error {
	_, err := c.tr.Patch(ctx, "/users/name", updateNameRequest{Name: name})
	return wrapError("update name", err)
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	_, err := c.tr.Patch(ctx, "/users/password", updatePasswordRequest{Password: password})
	return wrapError("update password", err)
}

// Quit deletes the signed-in user's account.
func (c *Client) Quit(ctx context.Context) error {
	_, err := c.tr.Delete(ctx, "/users/quit")
	return wrapError("quit", err)
}

// wrapError prefixes err with the operation, keeping it matchable with
// errors.Is. Timeouts get a readable message.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%s: request timed out: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
