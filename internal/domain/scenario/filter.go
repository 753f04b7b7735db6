package scenario

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter restricts a run to a subset of a project's scenarios. A filter is
// either a plain label set, an expression over scenario fields, or empty
// (matches everything). Labels and an expression may be combined; a scenario
// must satisfy both.
type Filter struct {
	labels  map[string]bool
	program *vm.Program
	source  string
}

// NewFilter compiles a filter from a label list and an optional expression.
// The expression is evaluated against {label, url, referenceUrl, selectors}
// and must yield a boolean.
func NewFilter(labels []string, expression string) (*Filter, error) {
	f := &Filter{}
	if len(labels) > 0 {
		f.labels = make(map[string]bool, len(labels))
		for _, l := range labels {
			f.labels[l] = true
		}
	}
	if expression != "" {
		program, err := expr.Compile(expression, expr.Env(filterEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile filter expression %q: %w", expression, err)
		}
		f.program = program
		f.source = expression
	}
	return f, nil
}

type filterEnv struct {
	Label        string   `expr:"label"`
	URL          string   `expr:"url"`
	ReferenceURL string   `expr:"referenceUrl"`
	Selectors    []string `expr:"selectors"`
}

// Empty reports whether the filter matches every scenario.
func (f *Filter) Empty() bool {
	return f == nil || (f.labels == nil && f.program == nil)
}

// Matches reports whether the scenario is inside the filter. Expression
// evaluation errors count as no match.
func (f *Filter) Matches(s *Scenario) bool {
	if f.Empty() {
		return true
	}
	if f.labels != nil && !f.labels[s.Label] {
		return false
	}
	if f.program != nil {
		out, err := expr.Run(f.program, filterEnv{
			Label:        s.Label,
			URL:          s.URL,
			ReferenceURL: s.ReferenceURL,
			Selectors:    s.EffectiveSelectors(),
		})
		if err != nil {
			return false
		}
		matched, ok := out.(bool)
		return ok && matched
	}
	return true
}
