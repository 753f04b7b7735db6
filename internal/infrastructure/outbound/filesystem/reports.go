package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sophialabs/visreg/internal/domain/report"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
)

var _ ports.ReportStore = (*ReportStore)(nil)

// ReportStore persists one reconciled report document per project. Writes go
// through a temp file and rename so readers never observe a half-written
// report.
type ReportStore struct {
	layout services.Layout
}

// NewReportStore creates a store over the shared project layout.
func NewReportStore(layout services.Layout) *ReportStore {
	return &ReportStore{layout: layout}
}

// Save persists the report, replacing any previous one.
func (s *ReportStore) Save(_ context.Context, projectID string, r *report.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	path := s.layout.ReportFile(projectID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace report: %w", err)
	}
	return nil
}

// Load reads the last persisted report. Returns report.ErrNoReport if none
// exists yet.
func (s *ReportStore) Load(_ context.Context, projectID string) (*report.Report, error) {
	data, err := os.ReadFile(s.layout.ReportFile(projectID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, report.ErrNoReport
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}
