package ports

import (
	"context"
	"time"

	"github.com/sophialabs/visreg/internal/domain/progress"
	"github.com/sophialabs/visreg/internal/domain/reference"
	"github.com/sophialabs/visreg/internal/domain/report"
	"github.com/sophialabs/visreg/internal/domain/scenario"
)

// Clock provides the current time (for testing).
type Clock interface {
	Now() time.Time
	// SleepContext blocks for d or until ctx is cancelled. Returns ctx.Err() if cancelled.
	SleepContext(ctx context.Context, d time.Duration) error
}

// Logger provides structured logging.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// RateLimiter checks whether a request is allowed under rate limits.
type RateLimiter interface {
	// Allow checks if a request identified by key is within the rate limit.
	// rate is tokens per second, burst is the max burst size.
	Allow(ctx context.Context, key string, rate float64, burst int) bool
}

// Prober performs a lightweight reachability check against a scenario target.
// A nil error means the target answered; callers classify the failure cause.
type Prober interface {
	Probe(ctx context.Context, rawURL string) error
}

// EngineRunSpec scopes one diff-engine invocation to the valid scenario
// subset of a project and its full viewport list.
type EngineRunSpec struct {
	ProjectID string
	Scenarios []scenario.Scenario
	Viewports []scenario.Viewport
}

// Engine drives the external screenshot-diff tool. Test blocks for the
// subprocess lifetime and calls onProgress as each pair completes. A non-nil
// error means the engine could not be launched or produced no report;
// per-pair visual mismatches are not errors.
type Engine interface {
	Test(ctx context.Context, spec EngineRunSpec, onProgress func(progress.Event)) (*report.RawReport, error)
}

// ProjectRepository is the port for loading project configuration documents.
type ProjectRepository interface {
	LoadAll(ctx context.Context) ([]*scenario.Project, error)
	LoadByID(ctx context.Context, id string) (*scenario.Project, error)
}

// ReferenceStatusEntry is the sync state of one (scenario, viewport) pair.
type ReferenceStatusEntry struct {
	Label         string           `json:"label"`
	ViewportLabel string           `json:"viewportLabel"`
	Status        reference.Status `json:"status"`
}

// ReferenceTracker reports baseline sync state and promotes test captures to
// new baselines.
type ReferenceTracker interface {
	ProjectStatus(project *scenario.Project) []ReferenceStatusEntry
	Approve(project *scenario.Project, filter *scenario.Filter) (int, error)
}

// ReportStore persists the reconciled report per project.
type ReportStore interface {
	Save(ctx context.Context, projectID string, r *report.Report) error
	Load(ctx context.Context, projectID string) (*report.Report, error)
}
