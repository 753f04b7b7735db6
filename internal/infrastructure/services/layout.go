package services

import "path/filepath"

// Layout is the path arithmetic for per-project state on disk. Every
// component that touches project files goes through it so the engine, the
// reference tracker and the approve operation agree on the same directories.
type Layout struct {
	Root string
}

// NewLayout creates a layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// ProjectDir returns the directory holding everything for one project.
func (l Layout) ProjectDir(projectID string) string {
	return filepath.Join(l.Root, projectID)
}

// ConfigFile returns the project configuration document path.
func (l Layout) ConfigFile(projectID string) string {
	return filepath.Join(l.ProjectDir(projectID), "project.json")
}

// BackstopDir returns the engine's per-project working directory.
func (l Layout) BackstopDir(projectID string) string {
	return filepath.Join(l.ProjectDir(projectID), "backstop_data")
}

// ReferenceDir holds the reference baseline images.
func (l Layout) ReferenceDir(projectID string) string {
	return filepath.Join(l.BackstopDir(projectID), "bitmaps_reference")
}

// TestDir holds the per-run captured test images.
func (l Layout) TestDir(projectID string) string {
	return filepath.Join(l.BackstopDir(projectID), "bitmaps_test")
}

// JSONReportFile is where the engine persists its raw report.
func (l Layout) JSONReportFile(projectID string) string {
	return filepath.Join(l.BackstopDir(projectID), "json_report", "jsonReport.json")
}

// HTMLReportDir is the engine's own browser report output.
func (l Layout) HTMLReportDir(projectID string) string {
	return filepath.Join(l.BackstopDir(projectID), "html_report")
}

// EngineScriptsDir holds generated onBefore/onReady scripts.
func (l Layout) EngineScriptsDir(projectID string) string {
	return filepath.Join(l.BackstopDir(projectID), "engine_scripts")
}

// EngineConfigFile is the generated per-run engine configuration.
func (l Layout) EngineConfigFile(projectID string) string {
	return filepath.Join(l.BackstopDir(projectID), "backstop.json")
}

// UploadsDir holds manually uploaded reference imagery.
func (l Layout) UploadsDir(projectID string) string {
	return filepath.Join(l.ProjectDir(projectID), "uploads")
}

// ReportFile is the reconciled, authoritative report document.
func (l Layout) ReportFile(projectID string) string {
	return filepath.Join(l.ProjectDir(projectID), "test-results.json")
}
