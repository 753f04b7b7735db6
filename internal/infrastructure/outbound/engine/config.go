package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sophialabs/visreg/internal/domain/artifact"
	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
)

// backstopConfig mirrors the subset of the BackstopJS configuration file this
// service generates. Field names follow the engine's JSON schema.
type backstopConfig struct {
	ID            string             `json:"id"`
	Viewports     []backstopViewport `json:"viewports"`
	Scenarios     []backstopScenario `json:"scenarios"`
	Paths         backstopPaths      `json:"paths"`
	Report        []string           `json:"report"`
	Engine        string             `json:"engine"`
	EngineOptions map[string]any     `json:"engineOptions,omitempty"`
	Asynchronous  int                `json:"asyncCaptureLimit,omitempty"`
}

type backstopViewport struct {
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type backstopScenario struct {
	Label                 string   `json:"label"`
	URL                   string   `json:"url"`
	ReferenceURL          string   `json:"referenceUrl,omitempty"`
	Selectors             []string `json:"selectors"`
	Delay                 int      `json:"delay,omitempty"`
	MisMatchThreshold     float64  `json:"misMatchThreshold,omitempty"`
	RequireSameDimensions bool     `json:"requireSameDimensions"`
	HideSelectors         []string `json:"hideSelectors,omitempty"`
	RemoveSelectors       []string `json:"removeSelectors,omitempty"`
	ClickSelector         string   `json:"clickSelector,omitempty"`
	HoverSelector         string   `json:"hoverSelector,omitempty"`
	OnReadyScript         string   `json:"onReadyScript,omitempty"`
	OnBeforeScript        string   `json:"onBeforeScript,omitempty"`
	SelectorExpansion     bool     `json:"selectorExpansion"`
}

type backstopPaths struct {
	BitmapsReference string `json:"bitmaps_reference"`
	BitmapsTest      string `json:"bitmaps_test"`
	EngineScripts    string `json:"engine_scripts"`
	HTMLReport       string `json:"html_report"`
	JSONReport       string `json:"ci_report"`
}

// writeConfig materializes the run-scoped engine configuration and any custom
// scenario scripts, returning the config file path.
func (e *BackstopEngine) writeConfig(spec ports.EngineRunSpec) (string, error) {
	pid := spec.ProjectID
	for _, dir := range []string{
		e.layout.BackstopDir(pid),
		e.layout.ReferenceDir(pid),
		e.layout.TestDir(pid),
		e.layout.EngineScriptsDir(pid),
		filepath.Dir(e.layout.JSONReportFile(pid)),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create engine directory: %w", err)
		}
	}

	cfg := backstopConfig{
		ID:        "backstop_default",
		Viewports: make([]backstopViewport, 0, len(spec.Viewports)),
		Scenarios: make([]backstopScenario, 0, len(spec.Scenarios)),
		Paths: backstopPaths{
			BitmapsReference: e.layout.ReferenceDir(pid),
			BitmapsTest:      e.layout.TestDir(pid),
			EngineScripts:    e.layout.EngineScriptsDir(pid),
			HTMLReport:       e.layout.HTMLReportDir(pid),
			JSONReport:       filepath.Dir(e.layout.JSONReportFile(pid)),
		},
		Report: []string{"json"},
		Engine: "puppeteer",
	}

	for _, vp := range spec.Viewports {
		cfg.Viewports = append(cfg.Viewports, backstopViewport(vp))
	}
	for i := range spec.Scenarios {
		bs, err := e.convertScenario(pid, &spec.Scenarios[i])
		if err != nil {
			return "", err
		}
		cfg.Scenarios = append(cfg.Scenarios, bs)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode engine config: %w", err)
	}
	cfgPath := e.layout.EngineConfigFile(pid)
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write engine config: %w", err)
	}
	return cfgPath, nil
}

// convertScenario maps a domain scenario onto the engine's schema. Custom
// script sources are written into the engine_scripts directory and referenced
// by filename, which is how the engine expects them.
func (e *BackstopEngine) convertScenario(projectID string, sc *scenario.Scenario) (backstopScenario, error) {
	bs := backstopScenario{
		Label:                 sc.Label,
		URL:                   sc.URL,
		ReferenceURL:          sc.ReferenceURL,
		Selectors:             sc.EffectiveSelectors(),
		Delay:                 sc.Delay,
		MisMatchThreshold:     sc.MisMatchThreshold,
		RequireSameDimensions: sc.RequireSameDimensions,
		HideSelectors:         sc.HideSelectors,
		RemoveSelectors:       sc.RemoveSelectors,
		ClickSelector:         sc.ClickSelector,
		HoverSelector:         sc.HoverSelector,
		SelectorExpansion:     sc.ExpandSelectors(),
	}

	if sc.CustomScript != "" {
		name, err := e.writeScript(projectID, sc.Label, "ready", sc.CustomScript)
		if err != nil {
			return backstopScenario{}, err
		}
		bs.OnReadyScript = name
	}
	if sc.CustomBeforeScript != "" {
		name, err := e.writeScript(projectID, sc.Label, "before", sc.CustomBeforeScript)
		if err != nil {
			return backstopScenario{}, err
		}
		bs.OnBeforeScript = name
	}
	return bs, nil
}

func (e *BackstopEngine) writeScript(projectID, label, kind, source string) (string, error) {
	name := fmt.Sprintf("%s_%s.js", artifact.SanitizeLabel(label), kind)
	path := filepath.Join(e.layout.EngineScriptsDir(projectID), name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("failed to write custom script for %q: %w", label, err)
	}
	return name, nil
}
