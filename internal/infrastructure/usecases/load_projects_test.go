package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
	"github.com/sophialabs/visreg/internal/testutil"
	"github.com/sophialabs/visreg/internal/infrastructure/usecases"
)

type stubProjectRepo struct {
	projects []*scenario.Project
	err      error
}

func (r *stubProjectRepo) LoadAll(context.Context) ([]*scenario.Project, error) {
	return r.projects, r.err
}

func (r *stubProjectRepo) LoadByID(_ context.Context, id string) (*scenario.Project, error) {
	for _, p := range r.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, scenario.ErrNotFound
}

func TestLoadProjectsReplacesIndex(t *testing.T) {
	index := services.NewProjectIndex()
	index.Replace([]*scenario.Project{{ID: "stale"}})

	repo := &stubProjectRepo{projects: []*scenario.Project{testutil.ProjectFixture()}}
	uc := usecases.NewLoadProjectsUseCase(repo, index, &testutil.NoopLogger{})

	if err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, ok := index.Get("demo"); !ok {
		t.Error("expected demo to be indexed")
	}
	if _, ok := index.Get("stale"); ok {
		t.Error("stale project survived reload")
	}
}

func TestLoadProjectsKeepsIndexOnError(t *testing.T) {
	index := services.NewProjectIndex()
	index.Replace([]*scenario.Project{{ID: "current"}})

	repo := &stubProjectRepo{err: errors.New("root directory unreadable")}
	uc := usecases.NewLoadProjectsUseCase(repo, index, &testutil.NoopLogger{})

	if err := uc.Execute(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := index.Get("current"); !ok {
		t.Error("index must keep previous contents when loading fails")
	}
}
