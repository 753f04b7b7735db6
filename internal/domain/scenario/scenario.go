package scenario

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates a project was not found.
var ErrNotFound = errors.New("project not found")

// DefaultSelector is used when a scenario declares no selectors.
const DefaultSelector = "document"

// Scenario is one configured visual-regression test target. Scenarios are
// immutable once a run has started; the orchestrator works on the snapshot it
// loaded at run start.
type Scenario struct {
	Label                 string   `yaml:"label" json:"label"`
	URL                   string   `yaml:"url" json:"url"`
	ReferenceURL          string   `yaml:"referenceUrl,omitempty" json:"referenceUrl,omitempty"`
	Selectors             []string `yaml:"selectors,omitempty" json:"selectors,omitempty"`
	Delay                 int      `yaml:"delay,omitempty" json:"delay,omitempty"`
	MisMatchThreshold     float64  `yaml:"misMatchThreshold,omitempty" json:"misMatchThreshold,omitempty"`
	RequireSameDimensions bool     `yaml:"requireSameDimensions,omitempty" json:"requireSameDimensions,omitempty"`
	HideSelectors         []string `yaml:"hideSelectors,omitempty" json:"hideSelectors,omitempty"`
	RemoveSelectors       []string `yaml:"removeSelectors,omitempty" json:"removeSelectors,omitempty"`
	ClickSelector         string   `yaml:"clickSelector,omitempty" json:"clickSelector,omitempty"`
	HoverSelector         string   `yaml:"hoverSelector,omitempty" json:"hoverSelector,omitempty"`
	CustomScript          string   `yaml:"customScript,omitempty" json:"customScript,omitempty"`
	CustomBeforeScript    string   `yaml:"customBeforeScript,omitempty" json:"customBeforeScript,omitempty"`
	SelectorExpansion     *bool    `yaml:"selectorExpansion,omitempty" json:"selectorExpansion,omitempty"`
}

// EffectiveSelectors returns the scenario's selectors, defaulting to
// ["document"] when none are configured.
func (s *Scenario) EffectiveSelectors() []string {
	if len(s.Selectors) == 0 {
		return []string{DefaultSelector}
	}
	return s.Selectors
}

// ExpandSelectors reports whether selector expansion is enabled (default true).
func (s *Scenario) ExpandSelectors() bool {
	if s.SelectorExpansion == nil {
		return true
	}
	return *s.SelectorExpansion
}

// Validate checks the structural invariants of a scenario.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Label) == "" {
		return errors.New("scenario label must not be empty")
	}
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("scenario %q: url must not be empty", s.Label)
	}
	if s.MisMatchThreshold < 0 || s.MisMatchThreshold > 1 {
		return fmt.Errorf("scenario %q: misMatchThreshold must be within [0,1], got %v", s.Label, s.MisMatchThreshold)
	}
	return nil
}

// Viewport is one screen size every scenario is tested against.
type Viewport struct {
	Label  string `yaml:"label" json:"label"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// Validate checks the structural invariants of a viewport.
func (v *Viewport) Validate() error {
	if strings.TrimSpace(v.Label) == "" {
		return errors.New("viewport label must not be empty")
	}
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("viewport %q: dimensions must be positive, got %dx%d", v.Label, v.Width, v.Height)
	}
	return nil
}

// Project is one dashboard project: an ordered viewport list plus the
// scenarios tested against the cartesian product of both.
type Project struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name,omitempty" json:"name,omitempty"`
	Viewports []Viewport `yaml:"viewports" json:"viewports"`
	Scenarios []Scenario `yaml:"scenarios" json:"scenarios"`

	// SourceFile is the config document the project was loaded from.
	SourceFile string `yaml:"-" json:"-"`
}

// Validate checks the project and everything it contains. Scenario labels
// must be unique within a project.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("project id must not be empty")
	}
	if len(p.Viewports) == 0 {
		return fmt.Errorf("project %q: at least one viewport is required", p.ID)
	}
	for i := range p.Viewports {
		if err := p.Viewports[i].Validate(); err != nil {
			return fmt.Errorf("project %q: %w", p.ID, err)
		}
	}
	seen := make(map[string]bool, len(p.Scenarios))
	for i := range p.Scenarios {
		if err := p.Scenarios[i].Validate(); err != nil {
			return fmt.Errorf("project %q: %w", p.ID, err)
		}
		label := p.Scenarios[i].Label
		if seen[label] {
			return fmt.Errorf("project %q: duplicate scenario label %q", p.ID, label)
		}
		seen[label] = true
	}
	return nil
}

// ScenarioByLabel returns the scenario with the given label, or nil.
func (p *Project) ScenarioByLabel(label string) *Scenario {
	for i := range p.Scenarios {
		if p.Scenarios[i].Label == label {
			return &p.Scenarios[i]
		}
	}
	return nil
}
