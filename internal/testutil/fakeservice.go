// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"taskman/internal/service"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu       sync.RWMutex
	tasks    []service.Task
	user     service.User
	password string
	signedIn bool
	nextID   int
	calls    map[string]int
	updates  []Update

	// Error injection for testing
	ListTasksErr      error
	SearchTasksErr    error
	CreateTaskErr     error
	UpdateTaskErr     error
	DeleteTaskErr     error
	SignInErr         error
	SignUpErr         error
	SignOutErr        error
	MeErr             error
	UpdateNameErr     error
	UpdatePasswordErr error
	QuitErr           error

	// ListHook, if set, runs before ListTasks returns, outside the lock.
	// n is the 1-based call number.
	ListHook func(n int)
}

// Update records the arguments of one UpdateTask call.
type Update struct {
	ID     string
	Title  string
	IsDone bool
}

// NewFakeService creates a new FakeService with a signed-in user "alice".
func NewFakeService() *FakeService {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &FakeService{
		user:     service.User{ID: "user-1", Name: "alice", CreatedAt: now, UpdatedAt: now},
		password: "secret",
		signedIn: true,
		calls:    make(map[string]int),
	}
}

// AddTask adds a task and returns its ID.
func (f *FakeService) AddTask(title string, done bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addTaskLocked(title, done)
}

func (f *FakeService) addTaskLocked(title string, done bool) string {
	f.nextID++
	id := fmt.Sprintf("task-%d", f.nextID)
	f.tasks = append(f.tasks, service.Task{
		ID:        id,
		UserID:    f.user.ID,
		Title:     title,
		IsDone:    done,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, f.nextID, 0, time.UTC),
	})
	return id
}

// Tasks returns a snapshot of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.tasks)
}

// Calls returns how many times method was called.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (f *FakeService) TotalCalls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Updates returns the recorded UpdateTask arguments in call order.
func (f *FakeService) Updates() []Update {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.updates)
}

// SignedIn reports whether the fake holds a session.
func (f *FakeService) SignedIn() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.signedIn
}

func (f *FakeService) record(method string) {
	f.calls[method]++
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	f.record("ListTasks")
	n := f.calls["ListTasks"]
	tasks := slices.Clone(f.tasks)
	err := f.ListTasksErr
	hook := f.ListHook
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// SearchTasks implements service.Service. Matching ignores case.
func (f *FakeService) SearchTasks(ctx context.Context, q string) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SearchTasks")
	if f.SearchTasksErr != nil {
		return nil, f.SearchTasksErr
	}
	out := []service.Task{}
	for _, t := range f.tasks {
		if strings.Contains(strings.ToLower(t.Title), strings.ToLower(q)) {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return f.CreateTaskErr
	}
	f.addTaskLocked(title, false)
	return nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id, title string, isDone bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateTask")
	f.updates = append(f.updates, Update{ID: id, Title: title, IsDone: isDone})
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Title = title
			f.tasks[i].IsDone = isDone
			return nil
		}
	}
	return ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// SignIn implements service.Service.
func (f *FakeService) SignIn(ctx context.Context, creds service.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SignIn")
	if f.SignInErr != nil {
		return f.SignInErr
	}
	if creds.Name != f.user.Name || creds.Password != f.password {
		return errors.New("invalid user_id or password")
	}
	f.signedIn = true
	return nil
}

// SignUp implements service.Service.
func (f *FakeService) SignUp(ctx context.Context, creds service.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SignUp")
	if f.SignUpErr != nil {
		return "", f.SignUpErr
	}
	return "user-" + creds.Name, nil
}

// SignOut implements service.Service.
func (f *FakeService) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SignOut")
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.signedIn = false
	return nil
}

// Me implements service.Service.
func (f *FakeService) Me(ctx context.Context) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Me")
	if f.MeErr != nil {
		return service.User{}, f.MeErr
	}
	return f.user, nil
}

// UpdateName implements service.Service.
func (f *FakeService) UpdateName(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateName")
	if f.UpdateNameErr != nil {
		return f.UpdateNameErr
	}
	f.user.Name = name
	return nil
}

// UpdatePassword implements service.Service.
func (f *FakeService) UpdatePassword(ctx context.Context, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdatePassword")
	if f.UpdatePasswordErr != nil {
		return f.UpdatePasswordErr
	}
	f.password = password
	return nil
}

// Quit implements service.Service.
func (f *FakeService) Quit(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Quit")
	if f.QuitErr != nil {
		return f.QuitErr
	}
	f.tasks = nil
	f.signedIn = false
	return nil
}
