// Package progress carries live run progress from the orchestrator to any
// number of connected dashboard sessions. Delivery is best-effort: the
// persisted report stays the system of record.
package progress

import "time"

// EventType discriminates progress events.
type EventType string

const (
	// TypeTestStarted is published once when a run begins.
	TypeTestStarted EventType = "test-started"
	// TypeTestProgress is published per completed (scenario, viewport) pair.
	TypeTestProgress EventType = "test-progress"
	// TypeTestComplete is the terminal event of a run.
	TypeTestComplete EventType = "test-complete"
	// TypeReportEnhanced signals that reconciliation merged network-error
	// placeholders into the report.
	TypeReportEnhanced EventType = "report-enhanced"
	// TypeReportEnhancementFailed signals that the run failed before a
	// reconciled report could be produced.
	TypeReportEnhancementFailed EventType = "report-enhancement-failed"
)

// Event is one progress message. Fields beyond Type and Project are populated
// depending on the event type.
type Event struct {
	Type               EventType `json:"type"`
	Project            string    `json:"project"`
	Scenario           string    `json:"scenario,omitempty"`
	ViewportLabel      string    `json:"viewportLabel,omitempty"`
	Status             string    `json:"status,omitempty"`
	MismatchPercentage float64   `json:"mismatchPercentage,omitempty"`
	NetworkErrorCount  int       `json:"networkErrorCount,omitempty"`
	Error              string    `json:"error,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}
