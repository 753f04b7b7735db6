// Package template renders the standalone HTML view of a reconciled report
// using Pongo2 (Django/Jinja2-style) templates.
package template

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/sophialabs/visreg/internal/domain/report"
)

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ projectName }} - visual regression report</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.4rem; }
.summary { margin: 1rem 0; }
.summary span { margin-right: 1.5rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.9rem; }
tr.pass td.status { color: #1a7f37; }
tr.fail td.status { color: #cf222e; }
td.error { color: #cf222e; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>{{ projectName }}</h1>
<div class="summary">
<span>generated {{ generatedAt }}</span>
<span>{{ report.TotalScenarios }} scenarios</span>
<span>{{ passed }} passed</span>
<span>{{ failed }} failed</span>
{% if report.HasNetworkErrors %}<span>{{ report.NetworkErrorCount }} network errors</span>{% endif %}
</div>
<table>
<thead>
<tr><th>Scenario</th><th>Viewport</th><th>Selector</th><th>Status</th><th>Mismatch</th><th>Detail</th></tr>
</thead>
<tbody>
{% for entry in report.Tests %}
<tr class="{{ entry.Status }}">
<td>{{ entry.Pair.Label }}</td>
<td>{{ entry.Pair.ViewportLabel }}</td>
<td>{{ entry.Pair.Selector }}</td>
<td class="status">{{ entry.Status }}</td>
<td>{{ entry.Pair.Diff.MisMatchPercentage }}%</td>
<td class="error">{{ entry.Error }}</td>
</tr>
{% endfor %}
</tbody>
</table>
</body>
</html>
`

// HTMLRenderer renders reconciled reports as a self-contained HTML page.
type HTMLRenderer struct {
	tpl *pongo2.Template
}

// NewHTMLRenderer compiles the built-in report template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tpl, err := pongo2.FromString(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("compiling report template: %w", err)
	}
	return &HTMLRenderer{tpl: tpl}, nil
}

// Render produces the HTML document for one project's report.
func (r *HTMLRenderer) Render(projectName string, rep *report.Report) ([]byte, error) {
	ctx := pongo2.Context{
		"projectName": projectName,
		"report":      rep,
		"generatedAt": rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		"passed":      rep.PassCount(),
		"failed":      rep.FailCount(),
	}

	result, err := r.tpl.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("rendering report template: %w", err)
	}
	return []byte(result), nil
}
