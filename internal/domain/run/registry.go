// Package run enforces the one-active-run-per-project rule. The diff engine
// writes into shared per-project output directories, so concurrent runs for
// the same project would corrupt each other's reports.
package run

import (
	"errors"
	"sync"
	"time"
)

// ErrRunInProgress is returned when a run is requested for a project that
// already has one in flight. Callers fail fast; runs are never queued.
var ErrRunInProgress = errors.New("a test run is already in progress for this project")

// Handle describes one active run.
type Handle struct {
	ProjectID string
	StartedAt time.Time
}

// Registry tracks active runs keyed by project id. The zero value is not
// usable; construct via NewRegistry.
type Registry struct {
	mu     sync.Mutex
	active map[string]*Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*Handle)}
}

// Acquire claims the run slot for a project. The returned release function is
// idempotent and must be called on every exit path, including engine crashes.
func (r *Registry) Acquire(projectID string) (release func(), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.active[projectID]; busy {
		return nil, ErrRunInProgress
	}
	r.active[projectID] = &Handle{ProjectID: projectID, StartedAt: time.Now()}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.active, projectID)
		})
	}, nil
}

// Active returns the handle for a project's in-flight run, or nil.
func (r *Registry) Active(projectID string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.active[projectID]; ok {
		copied := *h
		return &copied
	}
	return nil
}

// Len returns the number of projects with an active run.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
