// Package search derives the visible subset of tasks from a query.
//
// Filter runs locally on every keystroke. Remote is the separate,
// server-backed search that only runs once explicitly activated.
package search

import (
	"context"
	"slices"
	"strings"
	"sync"

	"taskman/internal/service"
)

// Filter returns the tasks whose title contains query, case-sensitively,
// in their original order. An empty query matches every task.
func Filter(tasks []service.Task, query string) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(t.Title, query) {
			out = append(out, t)
		}
	}
	return out
}

// Remote holds the results of the server-side search endpoint.
// Its results are independent of the task list controller's collection.
type Remote struct {
	svc service.Service

	mu      sync.Mutex
	active  bool
	query   string
	results []service.Task
}

// NewRemote creates an inactive server search.
func NewRemote(svc service.Service) *Remote {
	return &Remote{svc: svc}
}

// Activate enables fetching on SetQuery.
func (r *Remote) Activate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
}

// Deactivate disables fetching and drops the results.
func (r *Remote) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.results = nil
}

// Active reports whether the server search is enabled.
func (r *Remote) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Query returns the last query set.
func (r *Remote) Query() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query
}

// Results returns a copy of the last fetched results.
func (r *Remote) Results() []service.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.results)
}

// SetQuery records q and, when active, fetches matching tasks from the
// server. While inactive nothing is sent. On failure the previous results
// are kept. Results arriving after Deactivate, or after a newer query was
// set, are returned but not stored.
func (r *Remote) SetQuery(ctx context.Context, q string) ([]service.Task, error) {
	r.mu.Lock()
	r.query = q
	active := r.active
	r.mu.Unlock()

	if !active {
		return nil, nil
	}

	tasks, err := r.svc.SearchTasks(ctx, q)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.active && r.query == q {
		r.results = slices.Clone(tasks)
	}
	r.mu.Unlock()
	return tasks, nil
}
