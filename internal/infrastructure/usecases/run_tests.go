package usecases

import (
	"context"
	"fmt"

	"github.com/sophialabs/visreg/internal/domain/progress"
	"github.com/sophialabs/visreg/internal/domain/report"
	"github.com/sophialabs/visreg/internal/domain/run"
	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
)

// RunTestsUseCase orchestrates one visual regression run: claim the project's
// run slot, preflight the scenarios, drive the diff engine over the valid
// subset, reconcile the raw report with synthetic entries for rejected
// scenarios, and persist the result.
type RunTestsUseCase struct {
	index     *services.ProjectIndex
	registry  *run.Registry
	validator *ValidateScenariosUseCase
	engine    ports.Engine
	reports   ports.ReportStore
	bus       *progress.Bus
	clock     ports.Clock
	logger    ports.Logger
}

// NewRunTestsUseCase creates a new use case.
func NewRunTestsUseCase(
	index *services.ProjectIndex,
	registry *run.Registry,
	validator *ValidateScenariosUseCase,
	engine ports.Engine,
	reports ports.ReportStore,
	bus *progress.Bus,
	clock ports.Clock,
	logger ports.Logger,
) *RunTestsUseCase {
	return &RunTestsUseCase{
		index:     index,
		registry:  registry,
		validator: validator,
		engine:    engine,
		reports:   reports,
		bus:       bus,
		clock:     clock,
		logger:    logger,
	}
}

// Execute runs the full pipeline for one project. It blocks until the run
// finishes and returns the reconciled report. run.ErrRunInProgress is
// returned without touching the in-flight run.
func (uc *RunTestsUseCase) Execute(ctx context.Context, projectID string, filter *scenario.Filter) (*report.Report, error) {
	project, ok := uc.index.Get(projectID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", scenario.ErrNotFound, projectID)
	}

	release, err := uc.registry.Acquire(projectID)
	if err != nil {
		return nil, err
	}
	defer release()

	uc.bus.Publish(progress.Event{
		Type:      progress.TypeTestStarted,
		Project:   projectID,
		Timestamp: uc.clock.Now(),
	})

	verdicts := uc.validator.Execute(ctx, project, filter)
	_, invalid := scenario.SplitVerdicts(verdicts)
	runnable := runnableScenarios(project, verdicts, filter)

	uc.logger.Info("preflight complete",
		"project", projectID,
		"scenarios", len(project.Scenarios),
		"runnable", len(runnable),
		"invalid", len(invalid))

	var raw *report.RawReport
	if len(runnable) > 0 {
		raw, err = uc.engine.Test(ctx, ports.EngineRunSpec{
			ProjectID: projectID,
			Scenarios: runnable,
			Viewports: project.Viewports,
		}, uc.bus.Publish)
		if err != nil {
			uc.logger.Error("engine run failed", "project", projectID, "error", err)
			uc.bus.Publish(progress.Event{
				Type:      progress.TypeReportEnhancementFailed,
				Project:   projectID,
				Error:     err.Error(),
				Timestamp: uc.clock.Now(),
			})
			return nil, fmt.Errorf("engine run for %s: %w", projectID, err)
		}
	}

	reconciled, err := report.Reconcile(raw, project, invalid, uc.clock.Now())
	if err != nil {
		uc.bus.Publish(progress.Event{
			Type:      progress.TypeReportEnhancementFailed,
			Project:   projectID,
			Error:     err.Error(),
			Timestamp: uc.clock.Now(),
		})
		return nil, fmt.Errorf("reconciling report for %s: %w", projectID, err)
	}

	if err := uc.reports.Save(ctx, projectID, reconciled); err != nil {
		return nil, fmt.Errorf("persisting report for %s: %w", projectID, err)
	}

	if reconciled.HasNetworkErrors {
		uc.bus.Publish(progress.Event{
			Type:              progress.TypeReportEnhanced,
			Project:           projectID,
			NetworkErrorCount: reconciled.NetworkErrorCount,
			Timestamp:         uc.clock.Now(),
		})
	}
	uc.bus.Publish(progress.Event{
		Type:      progress.TypeTestComplete,
		Project:   projectID,
		Timestamp: uc.clock.Now(),
	})

	return reconciled, nil
}

// runnableScenarios selects the scenarios the engine should attempt: valid
// per preflight and inside the active filter. Preflight rejection is final;
// an invalid scenario is never handed to the engine.
func runnableScenarios(project *scenario.Project, verdicts []scenario.Verdict, filter *scenario.Filter) []scenario.Scenario {
	validByLabel := make(map[string]bool, len(verdicts))
	for _, v := range verdicts {
		if v.Valid {
			validByLabel[v.Label] = true
		}
	}

	runnable := make([]scenario.Scenario, 0, len(project.Scenarios))
	for i := range project.Scenarios {
		sc := &project.Scenarios[i]
		if validByLabel[sc.Label] && filter.Matches(sc) {
			runnable = append(runnable, *sc)
		}
	}
	return runnable
}
