package services

import (
	"sort"
	"sync"

	"github.com/sophialabs/visreg/internal/domain/scenario"
)

// ProjectIndex holds the loaded project configurations keyed by ID. The
// config watcher swaps the whole set on reload, so reads take a shared lock.
type ProjectIndex struct {
	mu       sync.RWMutex
	projects map[string]*scenario.Project
}

// NewProjectIndex creates an empty index.
func NewProjectIndex() *ProjectIndex {
	return &ProjectIndex{
		projects: make(map[string]*scenario.Project),
	}
}

// Replace swaps the full project set.
func (idx *ProjectIndex) Replace(projects []*scenario.Project) {
	next := make(map[string]*scenario.Project, len(projects))
	for _, p := range projects {
		next[p.ID] = p
	}
	idx.mu.Lock()
	idx.projects = next
	idx.mu.Unlock()
}

// Get returns the project with the given ID, or false when unknown.
func (idx *ProjectIndex) Get(id string) (*scenario.Project, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.projects[id]
	return p, ok
}

// All returns the projects sorted by ID.
func (idx *ProjectIndex) All() []*scenario.Project {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	all := make([]*scenario.Project, 0, len(idx.projects))
	for _, p := range idx.projects {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// IDs returns the sorted project IDs.
func (idx *ProjectIndex) IDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.projects))
	for id := range idx.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of loaded projects.
func (idx *ProjectIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.projects)
}
