package services

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"

	"github.com/sophialabs/visreg/internal/domain/report"
)

// QueryReport evaluates a JSONPath expression against the reconciled report,
// e.g. $.tests[*].pair.label.
func QueryReport(r *report.Report, path string) (any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}

	result, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("jsonpath query %q: %w", path, err)
	}
	return result, nil
}
