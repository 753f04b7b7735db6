// Package report holds the unified test report model and the reconciliation
// of engine results with preflight-rejected scenarios.
package report

import (
	"errors"
	"time"
)

// ErrNoReport indicates no report has been persisted for a project yet.
var ErrNoReport = errors.New("no report persisted for project")

// Status of one report entry.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// ViewportSize is the pixel dimensions a pair was captured at.
type ViewportSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DimensionDifference is the size delta between reference and test image.
type DimensionDifference struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Diff carries the engine's comparison result for one pair.
type Diff struct {
	IsSameDimensions    bool                `json:"isSameDimensions"`
	DimensionDifference DimensionDifference `json:"dimensionDifference"`
	MisMatchPercentage  float64             `json:"misMatchPercentage"`
	AnalysisTime        int                 `json:"analysisTime"`
}

// Pair describes the reference/test image pair of one entry.
type Pair struct {
	Reference     string       `json:"reference"`
	Test          string       `json:"test"`
	Selector      string       `json:"selector"`
	FileName      string       `json:"fileName"`
	Label         string       `json:"label"`
	ViewportLabel string       `json:"viewportLabel"`
	URL           string       `json:"url"`
	ReferenceURL  string       `json:"referenceUrl,omitempty"`
	ViewportSize  ViewportSize `json:"viewportSize"`
	Diff          Diff         `json:"diff"`
}

// Entry is the unit persisted and displayed: one (scenario, viewport) result,
// either produced by the diff engine or synthesized for a scenario that never
// reached it.
type Entry struct {
	Pair   Pair   `json:"pair"`
	Status string `json:"status"`
	// Error is present only on synthetic entries.
	Error         string    `json:"error,omitempty"`
	NetworkError  bool      `json:"networkError,omitempty"`
	ErrorType     string    `json:"errorType,omitempty"`
	MatchedFilter bool      `json:"matchedFilter,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// RawReport is what the diff engine persists: pass/fail pairs for the
// scenarios it actually attempted.
type RawReport struct {
	TestSuite string  `json:"testSuite,omitempty"`
	ID        string  `json:"id,omitempty"`
	Tests     []Entry `json:"tests"`
}

// Report is the reconciled, authoritative run result.
type Report struct {
	TestSuite             string    `json:"testSuite,omitempty"`
	ID                    string    `json:"id,omitempty"`
	Tests                 []Entry   `json:"tests"`
	HasNetworkErrors      bool      `json:"hasNetworkErrors"`
	NetworkErrorCount     int       `json:"networkErrorCount"`
	TotalScenarios        int       `json:"totalScenarios"`
	ValidScenariosCount   int       `json:"validScenariosCount"`
	InvalidScenariosCount int       `json:"invalidScenariosCount"`
	GeneratedAt           time.Time `json:"generatedAt"`
}

// FailCount returns the number of failing entries.
func (r *Report) FailCount() int {
	n := 0
	for i := range r.Tests {
		if r.Tests[i].Status == StatusFail {
			n++
		}
	}
	return n
}

// PassCount returns the number of passing entries.
func (r *Report) PassCount() int {
	n := 0
	for i := range r.Tests {
		if r.Tests[i].Status == StatusPass {
			n++
		}
	}
	return n
}
