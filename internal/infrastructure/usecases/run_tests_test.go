package usecases_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sophialabs/visreg/internal/domain/progress"
	"github.com/sophialabs/visreg/internal/domain/report"
	"github.com/sophialabs/visreg/internal/domain/run"
	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
	"github.com/sophialabs/visreg/internal/testutil"
	"github.com/sophialabs/visreg/internal/infrastructure/usecases"
)

type memReportStore struct {
	mu      sync.Mutex
	reports map[string]*report.Report
}

func newMemReportStore() *memReportStore {
	return &memReportStore{reports: make(map[string]*report.Report)}
}

func (s *memReportStore) Save(_ context.Context, projectID string, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[projectID] = r
	return nil
}

func (s *memReportStore) Load(_ context.Context, projectID string) (*report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[projectID]
	if !ok {
		return nil, report.ErrNoReport
	}
	return r, nil
}

type runFixture struct {
	uc      *usecases.RunTestsUseCase
	engine  *testutil.StubEngine
	prober  *testutil.StubProber
	store   *memReportStore
	bus     *progress.Bus
	reg     *run.Registry
	project *scenario.Project
}

func newRunFixture(t *testing.T) *runFixture {
	t.Helper()

	project := testutil.ProjectFixture()
	index := services.NewProjectIndex()
	index.Replace([]*scenario.Project{project})

	f := &runFixture{
		engine:  &testutil.StubEngine{},
		prober:  &testutil.StubProber{},
		store:   newMemReportStore(),
		bus:     progress.NewBus(64),
		reg:     run.NewRegistry(),
		project: project,
	}
	t.Cleanup(f.bus.Close)

	clock := &testutil.FixedClock{T: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	logger := &testutil.NoopLogger{}
	validator := usecases.NewValidateScenariosUseCase(
		f.prober, &testutil.StubRateLimiter{AllowAll: true}, clock, logger)

	f.uc = usecases.NewRunTestsUseCase(
		index, f.reg, validator, f.engine, f.store, f.bus, clock, logger)
	return f
}

func rawReportFor(project *scenario.Project) *report.RawReport {
	raw := &report.RawReport{TestSuite: "backstop"}
	for _, sc := range project.Scenarios {
		for _, vp := range project.Viewports {
			raw.Tests = append(raw.Tests, report.Entry{
				Pair:   report.Pair{Label: sc.Label, ViewportLabel: vp.Label},
				Status: report.StatusPass,
			})
		}
	}
	return raw
}

func drainEvents(ch <-chan progress.Event) []progress.Event {
	var events []progress.Event
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestRunTestsHappyPath(t *testing.T) {
	f := newRunFixture(t)
	f.engine.Raw = rawReportFor(f.project)

	events, cancel := f.bus.Subscribe()
	defer cancel()

	rep, err := f.uc.Execute(context.Background(), "demo", nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(rep.Tests) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(rep.Tests))
	}
	if rep.TotalScenarios != rep.ValidScenariosCount+rep.InvalidScenariosCount {
		t.Error("scenario count invariant violated")
	}
	if rep.HasNetworkErrors {
		t.Error("no network errors expected")
	}

	if len(f.engine.Calls) != 1 {
		t.Fatalf("engine invoked %d times, want 1", len(f.engine.Calls))
	}
	if got := len(f.engine.Calls[0].Scenarios); got != 2 {
		t.Errorf("engine received %d scenarios, want 2", got)
	}

	saved, err := f.store.Load(context.Background(), "demo")
	if err != nil {
		t.Fatalf("report not persisted: %v", err)
	}
	if len(saved.Tests) != len(rep.Tests) {
		t.Error("persisted report differs from returned report")
	}

	got := drainEvents(events)
	if len(got) < 2 {
		t.Fatalf("expected at least start and complete events, got %d", len(got))
	}
	if got[0].Type != progress.TypeTestStarted {
		t.Errorf("first event = %s, want test-started", got[0].Type)
	}
	if got[len(got)-1].Type != progress.TypeTestComplete {
		t.Errorf("last event = %s, want test-complete", got[len(got)-1].Type)
	}

	if f.reg.Active("demo") != nil {
		t.Error("run slot not released")
	}
}

func TestRunTestsInvalidScenarioNeverReachesEngine(t *testing.T) {
	f := newRunFixture(t)
	f.engine.Raw = &report.RawReport{Tests: []report.Entry{
		{Pair: report.Pair{Label: "homepage", ViewportLabel: "phone"}, Status: report.StatusPass},
		{Pair: report.Pair{Label: "homepage", ViewportLabel: "Tablet_Landscape"}, Status: report.StatusPass},
	}}
	f.prober.Errors = map[string]error{
		"http://localhost:3000/blog": &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
	}

	events, cancel := f.bus.Subscribe()
	defer cancel()

	rep, err := f.uc.Execute(context.Background(), "demo", nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	for _, spec := range f.engine.Calls {
		for _, sc := range spec.Scenarios {
			if sc.Label == "blog" {
				t.Fatal("invalid scenario forwarded to the engine")
			}
		}
	}

	// 2 real entries plus one synthetic per viewport.
	if len(rep.Tests) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(rep.Tests))
	}
	if !rep.HasNetworkErrors || rep.NetworkErrorCount != 2 {
		t.Errorf("networkErrorCount = %d, want 2", rep.NetworkErrorCount)
	}
	if rep.InvalidScenariosCount != 1 || rep.ValidScenariosCount != 1 {
		t.Errorf("counts = (%d valid, %d invalid), want (1, 1)",
			rep.ValidScenariosCount, rep.InvalidScenariosCount)
	}

	var enhanced bool
	for _, e := range drainEvents(events) {
		if e.Type == progress.TypeReportEnhanced {
			enhanced = true
			if e.NetworkErrorCount != 2 {
				t.Errorf("event networkErrorCount = %d, want 2", e.NetworkErrorCount)
			}
		}
	}
	if !enhanced {
		t.Error("expected a report-enhanced event")
	}
}

func TestRunTestsConflict(t *testing.T) {
	f := newRunFixture(t)

	release, err := f.reg.Acquire("demo")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	if _, err := f.uc.Execute(context.Background(), "demo", nil); !errors.Is(err, run.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if len(f.engine.Calls) != 0 {
		t.Error("engine must not run during a conflict")
	}
}

func TestRunTestsEngineFailure(t *testing.T) {
	f := newRunFixture(t)
	f.engine.Err = errors.New("browser binary not found")

	events, cancel := f.bus.Subscribe()
	defer cancel()

	if _, err := f.uc.Execute(context.Background(), "demo", nil); err == nil {
		t.Fatal("expected engine failure to surface")
	}

	if _, err := f.store.Load(context.Background(), "demo"); !errors.Is(err, report.ErrNoReport) {
		t.Error("no partial report may be persisted after a launch failure")
	}

	var failed bool
	for _, e := range drainEvents(events) {
		if e.Type == progress.TypeReportEnhancementFailed {
			failed = true
		}
	}
	if !failed {
		t.Error("expected a report-enhancement-failed event")
	}
	if f.reg.Active("demo") != nil {
		t.Error("run slot not released after failure")
	}
}

func TestRunTestsUnknownProject(t *testing.T) {
	f := newRunFixture(t)

	if _, err := f.uc.Execute(context.Background(), "ghost", nil); !errors.Is(err, scenario.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunTestsFilterScopesEngine(t *testing.T) {
	f := newRunFixture(t)
	f.engine.Raw = &report.RawReport{Tests: []report.Entry{
		{Pair: report.Pair{Label: "homepage", ViewportLabel: "phone"}, Status: report.StatusPass},
	}}

	filter, err := scenario.NewFilter([]string{"homepage"}, "")
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	if _, err := f.uc.Execute(context.Background(), "demo", filter); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(f.engine.Calls) != 1 || len(f.engine.Calls[0].Scenarios) != 1 {
		t.Fatalf("engine scenarios = %v, want just homepage", f.engine.Calls)
	}
	if f.engine.Calls[0].Scenarios[0].Label != "homepage" {
		t.Errorf("engine got %q, want homepage", f.engine.Calls[0].Scenarios[0].Label)
	}
}
