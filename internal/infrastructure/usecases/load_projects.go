package usecases

import (
	"context"
	"fmt"

	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
)

// LoadProjectsUseCase loads all project configurations and swaps them into
// the shared index. Invoked at startup and on every config-watcher reload.
type LoadProjectsUseCase struct {
	repo   ports.ProjectRepository
	index  *services.ProjectIndex
	logger ports.Logger
}

// NewLoadProjectsUseCase creates a new use case.
func NewLoadProjectsUseCase(repo ports.ProjectRepository, index *services.ProjectIndex, logger ports.Logger) *LoadProjectsUseCase {
	return &LoadProjectsUseCase{
		repo:   repo,
		index:  index,
		logger: logger,
	}
}

// Execute loads every project and replaces the index contents. On error the
// index keeps its previous contents so a broken edit never blanks a running
// dashboard.
func (uc *LoadProjectsUseCase) Execute(ctx context.Context) error {
	projects, err := uc.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}

	uc.index.Replace(projects)
	uc.logger.Info("loaded projects from repository", "count", len(projects))
	return nil
}
