// Package filesystem holds the disk-backed collaborators: project
// configuration documents, reference/upload imagery and persisted reports,
// all laid out per project under one root directory.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
)

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// ProjectRepository loads project configuration documents from
// <root>/<projectID>/project.{json,yaml,yml}. Documents are decoded with the
// YAML decoder, which accepts plain JSON as well.
type ProjectRepository struct {
	layout services.Layout
}

// NewProjectRepository creates a repository rooted at rootDir.
func NewProjectRepository(rootDir string) (*ProjectRepository, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return &ProjectRepository{layout: services.NewLayout(absRoot)}, nil
}

// Layout exposes the path layout shared with the other disk collaborators.
func (r *ProjectRepository) Layout() services.Layout {
	return r.layout
}

// LoadAll scans the root directory for project config documents and returns
// the validated projects.
func (r *ProjectRepository) LoadAll(_ context.Context) ([]*scenario.Project, error) {
	entries, err := os.ReadDir(r.layout.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects root: %w", err)
	}

	var projects []*scenario.Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path, ok := r.configPath(entry.Name())
		if !ok {
			continue
		}
		p, err := r.loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if p.ID == "" {
			p.ID = entry.Name()
		}
		if p.ID != entry.Name() {
			return nil, fmt.Errorf("project %s: id %q does not match its directory", path, p.ID)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// LoadByID loads a single project. Returns scenario.ErrNotFound if no config
// document exists for the id.
func (r *ProjectRepository) LoadByID(_ context.Context, id string) (*scenario.Project, error) {
	// Reject ids that would escape the root.
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, scenario.ErrNotFound
	}
	path, ok := r.configPath(id)
	if !ok {
		return nil, scenario.ErrNotFound
	}
	p, err := r.loadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if p.ID == "" {
		p.ID = id
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// configPath finds the project's config document, preferring project.json.
func (r *ProjectRepository) configPath(id string) (string, bool) {
	dir := r.layout.ProjectDir(id)
	for _, name := range []string{"project.json", "project.yaml", "project.yml"} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (r *ProjectRepository) loadFile(path string) (*scenario.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var p scenario.Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project config: %w", err)
	}
	p.SourceFile = path
	return &p, nil
}
