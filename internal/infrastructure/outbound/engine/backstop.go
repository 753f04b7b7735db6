// Package engine drives BackstopJS as an external subprocess. It generates a
// run-scoped configuration, launches the CLI, turns its per-pair output into
// progress events and reads back the raw JSON report the engine persists.
package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sophialabs/visreg/internal/domain/artifact"
	"github.com/sophialabs/visreg/internal/domain/progress"
	"github.com/sophialabs/visreg/internal/domain/report"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
)

var _ ports.Engine = (*BackstopEngine)(nil)

// LaunchError wraps failures where the engine never produced a report. These
// are fatal to the run, unlike per-pair visual mismatches.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("engine launch failed: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// BackstopEngine runs the BackstopJS CLI.
type BackstopEngine struct {
	command string
	layout  services.Layout
	timeout time.Duration
	clock   ports.Clock
	logger  ports.Logger
}

// New creates an engine runner invoking the given command (normally
// "backstop").
func New(command string, layout services.Layout, timeout time.Duration, clock ports.Clock, logger ports.Logger) *BackstopEngine {
	if command == "" {
		command = "backstop"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &BackstopEngine{
		command: command,
		layout:  layout,
		timeout: timeout,
		clock:   clock,
		logger:  logger,
	}
}

// Test runs the engine for the given scenario subset. The engine's exit code
// signals "differences found" on visual mismatches, so a non-zero exit with a
// readable report is a successful run; only a missing report is fatal.
func (e *BackstopEngine) Test(ctx context.Context, spec ports.EngineRunSpec, onProgress func(progress.Event)) (*report.RawReport, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cfgPath, err := e.writeConfig(spec)
	if err != nil {
		return nil, &LaunchError{Err: err}
	}

	// Remove the previous raw report so a crash cannot be mistaken for a
	// completed run.
	reportPath := e.layout.JSONReportFile(spec.ProjectID)
	_ = os.Remove(reportPath)

	cmd := exec.CommandContext(ctx, e.command, "test", "--config="+cfgPath)
	cmd.Dir = e.layout.ProjectDir(spec.ProjectID)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Err: err}
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Err: err}
	}
	e.logger.Info("engine started", "project", spec.ProjectID, "command", e.command, "scenarios", len(spec.Scenarios))

	files := fileMap(spec)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		e.logger.Debug("engine output", "project", spec.ProjectID, "line", line)
		if update, ok := parseProgressLine(line, files); ok && onProgress != nil {
			update.Project = spec.ProjectID
			update.Timestamp = e.clock.Now()
			onProgress(update)
		}
	}

	waitErr := cmd.Wait()

	raw, readErr := e.readRawReport(reportPath)
	if readErr != nil {
		if waitErr != nil {
			return nil, &LaunchError{Err: fmt.Errorf("engine exited (%v) without a report: %w", waitErr, readErr)}
		}
		return nil, &LaunchError{Err: readErr}
	}
	if waitErr != nil {
		// Exit status 1 with a report present means differences were found.
		e.logger.Info("engine reported differences", "project", spec.ProjectID, "exit", waitErr.Error())
	}

	return raw, nil
}

func (e *BackstopEngine) readRawReport(path string) (*report.RawReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw report: %w", err)
	}
	var raw report.RawReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse raw report: %w", err)
	}
	now := e.clock.Now()
	for i := range raw.Tests {
		if raw.Tests[i].Timestamp.IsZero() {
			raw.Tests[i].Timestamp = now
		}
	}
	return &raw, nil
}

// fileMap indexes every expected artifact filename back to its
// (scenario, selector, viewport) key.
func fileMap(spec ports.EngineRunSpec) map[string]artifact.Key {
	m := make(map[string]artifact.Key)
	for _, sc := range spec.Scenarios {
		for selIdx, sel := range sc.EffectiveSelectors() {
			for vpIdx, vp := range spec.Viewports {
				k := artifact.Key{
					Label:         sc.Label,
					SelectorIndex: selIdx,
					Selector:      sel,
					ViewportIndex: vpIdx,
					ViewportLabel: vp.Label,
				}
				m[k.FileName()] = k
			}
		}
	}
	return m
}
