package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sophialabs/visreg/internal/domain/artifact"
	"github.com/sophialabs/visreg/internal/domain/reference"
	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
)

// ReferenceStore tracks reference baseline images against manual uploads and
// promotes test captures to new baselines on approval. All reads degrade to
// "missing" on filesystem errors: an unreadable reference is operationally
// the same as no reference.
type ReferenceStore struct {
	layout services.Layout
	logger ports.Logger
}

// NewReferenceStore creates a store over the shared project layout.
func NewReferenceStore(layout services.Layout, logger ports.Logger) *ReferenceStore {
	return &ReferenceStore{layout: layout, logger: logger}
}

var _ ports.ReferenceTracker = (*ReferenceStore)(nil)

// Status computes the sync state for one (scenario, viewport) pair,
// aggregated across the scenario's selectors.
func (s *ReferenceStore) Status(projectID string, sc *scenario.Scenario, vpIndex int, vp scenario.Viewport) reference.Status {
	selectors := sc.EffectiveSelectors()
	statuses := make([]reference.Status, 0, len(selectors))
	for selIdx, sel := range selectors {
		fileName := artifact.FileName(sc.Label, selIdx, sel, vpIndex, vp.Label)
		refExists, refMod := s.stat(filepath.Join(s.layout.ReferenceDir(projectID), fileName))
		upExists, upMod := s.stat(filepath.Join(s.layout.UploadsDir(projectID), fileName))
		statuses = append(statuses, reference.Decide(refExists, refMod, upExists, upMod))
	}
	return reference.Combine(statuses)
}

// ProjectStatus computes the sync state for every (scenario, viewport) pair
// of a project, in configuration order.
func (s *ReferenceStore) ProjectStatus(project *scenario.Project) []ports.ReferenceStatusEntry {
	entries := make([]ports.ReferenceStatusEntry, 0, len(project.Scenarios)*len(project.Viewports))
	for i := range project.Scenarios {
		sc := &project.Scenarios[i]
		for vpIdx, vp := range project.Viewports {
			entries = append(entries, ports.ReferenceStatusEntry{
				Label:         sc.Label,
				ViewportLabel: vp.Label,
				Status:        s.Status(project.ID, sc, vpIdx, vp),
			})
		}
	}
	return entries
}

// Approve promotes the most recent run's test images to the reference
// baseline for every scenario matching the filter. Returns the number of
// promoted images.
func (s *ReferenceStore) Approve(project *scenario.Project, filter *scenario.Filter) (int, error) {
	runDir, err := s.latestRunDir(project.ID)
	if err != nil {
		return 0, err
	}
	refDir := s.layout.ReferenceDir(project.ID)
	if err := os.MkdirAll(refDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create reference directory: %w", err)
	}

	promoted := 0
	for i := range project.Scenarios {
		sc := &project.Scenarios[i]
		if !filter.Matches(sc) {
			continue
		}
		for selIdx, sel := range sc.EffectiveSelectors() {
			for vpIdx, vp := range project.Viewports {
				fileName := artifact.FileName(sc.Label, selIdx, sel, vpIdx, vp.Label)
				src := filepath.Join(runDir, fileName)
				if _, err := os.Stat(src); err != nil {
					// Nothing captured for this pair in the last run.
					continue
				}
				if err := copyFile(src, filepath.Join(refDir, fileName)); err != nil {
					return promoted, fmt.Errorf("failed to promote %s: %w", fileName, err)
				}
				promoted++
			}
		}
	}
	s.logger.Info("references approved", "project", project.ID, "promoted", promoted)
	return promoted, nil
}

// latestRunDir finds the most recently modified run directory under
// bitmaps_test.
func (s *ReferenceStore) latestRunDir(projectID string) (string, error) {
	testDir := s.layout.TestDir(projectID)
	entries, err := os.ReadDir(testDir)
	if err != nil {
		return "", fmt.Errorf("no test captures to approve: %w", err)
	}

	var latest string
	var latestMod time.Time
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = filepath.Join(testDir, entry.Name())
			latestMod = info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no test captures to approve in %s", testDir)
	}
	return latest, nil
}

func (s *ReferenceStore) stat(path string) (bool, time.Time) {
	info, err := os.Stat(path)
	if err != nil {
		return false, time.Time{}
	}
	return true, info.ModTime()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
