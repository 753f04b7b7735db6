package wiring

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sophialabs/visreg/internal/domain/progress"
	"github.com/sophialabs/visreg/internal/domain/run"
	inboundhttp "github.com/sophialabs/visreg/internal/infrastructure/inbound/http"
	"github.com/sophialabs/visreg/internal/infrastructure/outbound/clock"
	"github.com/sophialabs/visreg/internal/infrastructure/outbound/engine"
	"github.com/sophialabs/visreg/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/visreg/internal/infrastructure/outbound/probe"
	"github.com/sophialabs/visreg/internal/infrastructure/outbound/ratelimit"
	"github.com/sophialabs/visreg/internal/infrastructure/outbound/template"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
	"github.com/sophialabs/visreg/internal/infrastructure/usecases"
)

// Params holds the subset of configuration needed to construct infrastructure components.
type Params struct {
	RootDir          string
	EngineCommand    string
	EngineTimeout    time.Duration
	ProbeTimeout     time.Duration
	RateLimiterTTL   time.Duration
	EventBufferSize  int
	EventHistorySize int
	Logger           ports.Logger

	// Engine overrides the subprocess runner, for tests.
	Engine ports.Engine
}

// Container owns the construction and lifecycle of all infrastructure components.
type Container struct {
	logger           ports.Logger
	server           *inboundhttp.Server
	loadUC           *usecases.LoadProjectsUseCase
	runUC            *usecases.RunTestsUseCase
	index            *services.ProjectIndex
	bus              *progress.Bus
	history          *progress.RingBuffer
	rateLimiterStore *ratelimit.TokenBucketStore
	recorderDone     chan struct{}
	closeOnce        sync.Once
}

// New constructs all infrastructure components. Fallible operations run
// before goroutine-starting operations to avoid goroutine leaks on early
// failure.
func New(p Params) (*Container, error) {
	if _, err := os.Stat(p.RootDir); err != nil {
		return nil, fmt.Errorf("failed to access root directory: %w", err)
	}

	repo, err := filesystem.NewProjectRepository(p.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create project repository: %w", err)
	}
	layout := repo.Layout()

	renderer, err := template.NewHTMLRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create report renderer: %w", err)
	}

	// Goroutine-starting components from here on.
	rateLimiterStore := ratelimit.NewTokenBucketStore(p.RateLimiterTTL)

	clk := clock.New()
	index := services.NewProjectIndex()
	registry := run.NewRegistry()
	bus := progress.NewBus(p.EventBufferSize)
	history := progress.NewRingBuffer(p.EventHistorySize)

	references := filesystem.NewReferenceStore(layout, p.Logger)
	reports := filesystem.NewReportStore(layout)
	prober := probe.New(p.ProbeTimeout, p.Logger)

	eng := p.Engine
	if eng == nil {
		eng = engine.New(p.EngineCommand, layout, p.EngineTimeout, clk, p.Logger)
	}

	loadUC := usecases.NewLoadProjectsUseCase(repo, index, p.Logger)
	validateUC := usecases.NewValidateScenariosUseCase(prober, rateLimiterStore, clk, p.Logger)
	runUC := usecases.NewRunTestsUseCase(index, registry, validateUC, eng, reports, bus, clk, p.Logger)
	approveUC := usecases.NewApproveUseCase(index, registry, references, p.Logger)

	server := inboundhttp.NewServer(inboundhttp.Deps{
		Index:      index,
		RunUC:      runUC,
		ApproveUC:  approveUC,
		LoadUC:     loadUC,
		References: references,
		Reports:    reports,
		Renderer:   renderer,
		Bus:        bus,
		History:    history,
		Logger:     p.Logger,
	})

	c := &Container{
		logger:           p.Logger,
		server:           server,
		loadUC:           loadUC,
		runUC:            runUC,
		index:            index,
		bus:              bus,
		history:          history,
		rateLimiterStore: rateLimiterStore,
		recorderDone:     make(chan struct{}),
	}
	go c.recordHistory()

	return c, nil
}

// recordHistory mirrors every published event into the ring buffer backing
// the recent-events endpoint. Exits when the bus closes.
func (c *Container) recordHistory() {
	defer close(c.recorderDone)
	events, cancel := c.bus.Subscribe()
	defer cancel()
	for e := range events {
		c.history.Add(e)
	}
}

// Close releases resources held by the container. It is idempotent.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		c.bus.Close()
		<-c.recorderDone
		c.rateLimiterStore.Stop()
	})
}

// Logger returns the logger passed at construction time.
func (c *Container) Logger() ports.Logger {
	return c.logger
}

// Server returns the dashboard HTTP server.
func (c *Container) Server() *inboundhttp.Server {
	return c.server
}

// LoadProjectsUseCase returns the use case for loading project configs.
func (c *Container) LoadProjectsUseCase() *usecases.LoadProjectsUseCase {
	return c.loadUC
}

// RunTestsUseCase returns the run orchestration use case.
func (c *Container) RunTestsUseCase() *usecases.RunTestsUseCase {
	return c.runUC
}

// Index returns the shared project index.
func (c *Container) Index() *services.ProjectIndex {
	return c.index
}

// Bus returns the progress event bus.
func (c *Container) Bus() *progress.Bus {
	return c.bus
}
