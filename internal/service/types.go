// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks input rejected on the client before any request is sent.
var ErrValidation = errors.New("validation failed")

// Task represents a single task item.
// ID and CreatedAt are assigned by the server and never change.
type Task struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Title     string    `json:"title"`
	IsDone    bool      `json:"isDone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User represents the signed-in account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Credentials is the body of the signin and signup calls.
type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Validate rejects credentials with an empty name or password.
func (c Credentials) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password required", ErrValidation)
	}
	return nil
}
