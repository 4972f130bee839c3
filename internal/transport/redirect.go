package transport

import "sync"

// Redirect is a Navigator whose target can be replaced after the client is
// built. The CLI and the terminal UI install different targets.
type Redirect struct {
	mu sync.Mutex
	fn func(path string)
}

// Set replaces the target. A nil fn drops navigations.
func (r *Redirect) Set(fn func(path string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fn = fn
}

// Navigate calls the current target, if any.
func (r *Redirect) Navigate(path string) {
	r.mu.Lock()
	fn := r.fn
	r.mu.Unlock()
	if fn != nil {
		fn(path)
	}
}
