package usecases

import (
	"fmt"

	"github.com/sophialabs/visreg/internal/domain/run"
	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
)

// ApproveUseCase promotes the latest test captures to the reference baseline.
type ApproveUseCase struct {
	index      *services.ProjectIndex
	registry   *run.Registry
	references ports.ReferenceTracker
	logger     ports.Logger
}

// NewApproveUseCase creates a new use case.
func NewApproveUseCase(index *services.ProjectIndex, registry *run.Registry, references ports.ReferenceTracker, logger ports.Logger) *ApproveUseCase {
	return &ApproveUseCase{
		index:      index,
		registry:   registry,
		references: references,
		logger:     logger,
	}
}

// Execute approves test captures for the scenarios matching the filter.
// Approval is refused while a run is writing into the test directory.
func (uc *ApproveUseCase) Execute(projectID string, filter *scenario.Filter) (int, error) {
	project, ok := uc.index.Get(projectID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", scenario.ErrNotFound, projectID)
	}
	if uc.registry.Active(projectID) != nil {
		return 0, run.ErrRunInProgress
	}

	promoted, err := uc.references.Approve(project, filter)
	if err != nil {
		return 0, fmt.Errorf("approving references for %s: %w", projectID, err)
	}
	return promoted, nil
}
