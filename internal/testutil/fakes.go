package testutil

import (
	"context"
	"time"

	"github.com/sophialabs/visreg/internal/domain/progress"
	"github.com/sophialabs/visreg/internal/domain/report"
	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
)

var _ ports.Logger = (*NoopLogger)(nil)

// NoopLogger discards all log output.
type NoopLogger struct{}

func (l *NoopLogger) Info(string, ...any)  {}
func (l *NoopLogger) Warn(string, ...any)  {}
func (l *NoopLogger) Error(string, ...any) {}
func (l *NoopLogger) Debug(string, ...any) {}

var _ ports.Clock = (*FixedClock)(nil)

// FixedClock returns a fixed time and never sleeps.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }
func (c *FixedClock) SleepContext(context.Context, time.Duration) error {
	return nil
}

var _ ports.RateLimiter = (*StubRateLimiter)(nil)

// StubRateLimiter returns a configurable Allow result.
type StubRateLimiter struct {
	AllowAll bool
}

func (r *StubRateLimiter) Allow(context.Context, string, float64, int) bool {
	return r.AllowAll
}

var _ ports.Prober = (*StubProber)(nil)

// StubProber answers probes from a canned error map keyed by URL. URLs not in
// the map probe successfully.
type StubProber struct {
	Errors map[string]error
	Probed []string
}

func (p *StubProber) Probe(_ context.Context, rawURL string) error {
	p.Probed = append(p.Probed, rawURL)
	if p.Errors == nil {
		return nil
	}
	return p.Errors[rawURL]
}

var _ ports.Engine = (*StubEngine)(nil)

// StubEngine records the run spec it was given and replays canned progress
// events and a canned raw report.
type StubEngine struct {
	Raw      *report.RawReport
	Err      error
	Progress []progress.Event

	Calls []ports.EngineRunSpec
}

func (e *StubEngine) Test(_ context.Context, spec ports.EngineRunSpec, onProgress func(progress.Event)) (*report.RawReport, error) {
	e.Calls = append(e.Calls, spec)
	if e.Err != nil {
		return nil, e.Err
	}
	for _, ev := range e.Progress {
		if onProgress != nil {
			onProgress(ev)
		}
	}
	if e.Raw != nil {
		return e.Raw, nil
	}
	return &report.RawReport{}, nil
}

// ProjectFixture returns a ready-to-use two-scenario project for tests.
func ProjectFixture() *scenario.Project {
	return &scenario.Project{
		ID:   "demo",
		Name: "Demo Site",
		Viewports: []scenario.Viewport{
			{Label: "phone", Width: 320, Height: 480},
			{Label: "Tablet_Landscape", Width: 1024, Height: 768},
		},
		Scenarios: []scenario.Scenario{
			{Label: "homepage", URL: "http://localhost:3000/"},
			{Label: "blog", URL: "http://localhost:3000/blog", Selectors: []string{"#latest-blog > .container"}},
		},
	}
}
