package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/sophialabs/visreg/internal/domain/artifact"
	"github.com/sophialabs/visreg/internal/domain/scenario"
)

// ErrNoViewports indicates reconciliation was invoked without viewport data.
// This is a programming error: project validation must reject such configs
// before a run ever starts.
var ErrNoViewports = errors.New("reconcile requires at least one viewport")

// Reconcile merges the engine's raw report with synthetic entries for
// scenarios that failed preflight. The raw report is never mutated and the
// relative order of its entries is preserved; synthetic entries are appended
// after them, one per (invalid scenario, viewport) combination.
func Reconcile(raw *RawReport, project *scenario.Project, invalid []scenario.Verdict, now time.Time) (*Report, error) {
	if project == nil || len(project.Viewports) == 0 {
		return nil, ErrNoViewports
	}

	merged := &Report{
		GeneratedAt: now,
		Tests:       make([]Entry, 0, len(invalid)*len(project.Viewports)),
	}
	if raw != nil {
		merged.TestSuite = raw.TestSuite
		merged.ID = raw.ID
		merged.Tests = append(merged.Tests, raw.Tests...)
	}

	for _, verdict := range invalid {
		if verdict.Valid {
			return nil, fmt.Errorf("verdict for %q is valid, expected only invalid verdicts", verdict.Label)
		}
		sc := project.ScenarioByLabel(verdict.Label)
		for vpIndex, vp := range project.Viewports {
			merged.Tests = append(merged.Tests, syntheticEntry(sc, verdict, vpIndex, vp, now))
		}
	}

	merged.NetworkErrorCount = len(invalid) * len(project.Viewports)
	merged.HasNetworkErrors = merged.NetworkErrorCount > 0
	merged.InvalidScenariosCount = len(invalid)
	merged.ValidScenariosCount = countValidScenarios(raw)
	merged.TotalScenarios = merged.ValidScenariosCount + merged.InvalidScenariosCount

	return merged, nil
}

// syntheticEntry fabricates a failing entry for a scenario the engine never
// attempted. The mismatch is pinned at 100% so the UI sorts these alongside
// the worst real failures.
func syntheticEntry(sc *scenario.Scenario, verdict scenario.Verdict, vpIndex int, vp scenario.Viewport, now time.Time) Entry {
	selector := scenario.DefaultSelector
	url, refURL := "", ""
	if sc != nil {
		selector = sc.EffectiveSelectors()[0]
		url = sc.URL
		refURL = sc.ReferenceURL
	}

	annotation := " (Outside Filter)"
	if verdict.MatchedFilter {
		annotation = " (Matched Filter)"
	}

	return Entry{
		Pair: Pair{
			Selector:      selector,
			FileName:      artifact.FileName(verdict.Label, 0, selector, vpIndex, vp.Label),
			Label:         verdict.Label,
			ViewportLabel: vp.Label,
			URL:           url,
			ReferenceURL:  refURL,
			ViewportSize:  ViewportSize{Width: vp.Width, Height: vp.Height},
			Diff: Diff{
				IsSameDimensions:   false,
				MisMatchPercentage: 100,
			},
		},
		Status:        StatusFail,
		Error:         fmt.Sprintf("Network Error [%s]: %s%s", verdict.Reason, verdict.Message, annotation),
		NetworkError:  true,
		ErrorType:     string(verdict.Reason),
		MatchedFilter: verdict.MatchedFilter,
		Timestamp:     now,
	}
}

// countValidScenarios derives the number of scenarios the engine attempted
// from the raw report, counting distinct labels.
func countValidScenarios(raw *RawReport) int {
	if raw == nil {
		return 0
	}
	labels := make(map[string]bool)
	for i := range raw.Tests {
		labels[raw.Tests[i].Pair.Label] = true
	}
	return len(labels)
}
