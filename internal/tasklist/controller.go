// Package tasklist owns the in-memory task collection shown to the user and
// keeps it in step with the backend.
//
// The collection is never patched from a command's result. Every successful
// mutation is followed by a full List, so each render reflects the server's
// view including any defaults or validation it applied. Overlapping List
// calls are not ordered by issuance: whichever completes last determines the
// collection.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"taskman/internal/service"
)

var (
	// ErrEmptyTitle is returned when a task title is empty. No request is sent.
	ErrEmptyTitle = fmt.Errorf("%w: title required", service.ErrValidation)

	// ErrUnknownTask is returned when an ID is not in the current collection.
	ErrUnknownTask = errors.New("task not found")
)

// Controller owns the task collection for the lifetime of a view.
type Controller struct {
	svc    service.Service
	logger *zap.Logger

	mu    sync.RWMutex
	tasks []service.Task
}

// New creates a controller with an empty collection. Call List to load it.
func New(svc service.Service, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		svc:    svc,
		logger: logger.Named("tasklist"),
	}
}

// Tasks returns a copy of the current collection in server order.
func (c *Controller) Tasks() []service.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tasks)
}

// Find returns the task with the given ID from the current collection.
func (c *Controller) Find(id string) (service.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// List replaces the collection with the server's current one.
// On failure the collection is left as it was.
func (c *Controller) List(ctx context.Context) ([]service.Task, error) {
	tasks, err := c.svc.ListTasks(ctx)
	if err != nil {
		c.logger.Error("failed to list tasks", zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	c.tasks = slices.Clone(tasks)
	c.mu.Unlock()

	c.logger.Debug("tasks replaced", zap.Int("count", len(tasks)))
	return slices.Clone(tasks), nil
}

// Create adds a task with the given title, not done, then re-fetches.
func (c *Controller) Create(ctx context.Context, title string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if err := c.svc.CreateTask(ctx, title); err != nil {
		c.logger.Error("failed to create task", zap.Error(err))
		return err
	}
	return c.refetch(ctx)
}

// Update replaces both mutable fields of a task, then re-fetches.
func (c *Controller) Update(ctx context.Context, id, title string, isDone bool) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if err := c.svc.UpdateTask(ctx, id, title, isDone); err != nil {
		c.logger.Error("failed to update task", zap.String("id", id), zap.Error(err))
		return err
	}
	return c.refetch(ctx)
}

// SetTitle renames a task, sending its current done flag along.
func (c *Controller) SetTitle(ctx context.Context, id, title string) error {
	task, ok := c.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	return c.Update(ctx, id, title, task.IsDone)
}

// SetDone toggles a task, sending its current title along.
func (c *Controller) SetDone(ctx context.Context, id string, isDone bool) error {
	task, ok := c.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	return c.Update(ctx, id, task.Title, isDone)
}

// Remove deletes a task, then re-fetches.
func (c *Controller) Remove(ctx context.Context, id string) error {
	if err := c.svc.DeleteTask(ctx, id); err != nil {
		c.logger.Error("failed to delete task", zap.String("id", id), zap.Error(err))
		return err
	}
	return c.refetch(ctx)
}

// refetch runs List after a confirmed mutation. The mutation already
// happened, so a failure here is reported but the stale collection stays.
func (c *Controller) refetch(ctx context.Context) error {
	if _, err := c.List(ctx); err != nil {
		return fmt.Errorf("refresh after change: %w", err)
	}
	return nil
}
