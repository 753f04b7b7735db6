package wiring_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sophialabs/visreg/internal/infrastructure/wiring"
	"github.com/sophialabs/visreg/internal/testutil"
)

func validParams(t *testing.T) wiring.Params {
	t.Helper()
	dir := t.TempDir()
	projectDir := filepath.Join(dir, "demo")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	config := `{
  "id": "demo",
  "name": "Demo Site",
  "viewports": [{"label": "phone", "width": 320, "height": 480}],
  "scenarios": [{"label": "homepage", "url": "http://localhost:3000/"}]
}`
	if err := os.WriteFile(filepath.Join(projectDir, "project.json"), []byte(config), 0o644); err != nil {
		t.Fatalf("failed to write project config: %v", err)
	}

	return wiring.Params{
		RootDir:          dir,
		EngineCommand:    "backstop",
		EngineTimeout:    time.Minute,
		ProbeTimeout:     2 * time.Second,
		RateLimiterTTL:   5 * time.Minute,
		EventBufferSize:  16,
		EventHistorySize: 50,
		Logger:           &testutil.NoopLogger{},
	}
}

func TestNew_Success(t *testing.T) {
	p := validParams(t)
	c, err := wiring.New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if c.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if c.Server() == nil {
		t.Error("Server() returned nil")
	}
	if c.LoadProjectsUseCase() == nil {
		t.Error("LoadProjectsUseCase() returned nil")
	}
	if c.RunTestsUseCase() == nil {
		t.Error("RunTestsUseCase() returned nil")
	}
	if c.Index() == nil {
		t.Error("Index() returned nil")
	}
	if c.Bus() == nil {
		t.Error("Bus() returned nil")
	}
}

func TestNew_InvalidRootDir(t *testing.T) {
	p := wiring.Params{
		RootDir:          "/nonexistent/path/that/does/not/exist",
		RateLimiterTTL:   5 * time.Minute,
		EventBufferSize:  16,
		EventHistorySize: 50,
		Logger:           &testutil.NoopLogger{},
	}

	c, err := wiring.New(p)
	if err == nil {
		c.Close()
		t.Fatal("expected error for invalid root dir")
	}
	if c != nil {
		t.Error("expected nil container on error")
	}
}

func TestNew_ComponentsAreWiredCorrectly(t *testing.T) {
	p := validParams(t)
	c, err := wiring.New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if err := c.LoadProjectsUseCase().Execute(context.Background()); err != nil {
		t.Fatalf("LoadProjectsUseCase().Execute() failed: %v", err)
	}
	if c.Index().Len() != 1 {
		t.Errorf("expected 1 project in the index, got %d", c.Index().Len())
	}
	if _, ok := c.Index().Get("demo"); !ok {
		t.Error("expected project demo in the index")
	}
}

func TestNew_LoggerIsPassedThrough(t *testing.T) {
	p := validParams(t)
	logger := &testutil.NoopLogger{}
	p.Logger = logger

	c, err := wiring.New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if c.Logger() != logger {
		t.Error("Logger() does not return the same logger instance passed in Params")
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	p := validParams(t)
	c, err := wiring.New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Double close must not panic.
	c.Close()
	c.Close()
}
