package engine

import (
	"regexp"
	"strconv"

	"github.com/sophialabs/visreg/internal/domain/artifact"
	"github.com/sophialabs/visreg/internal/domain/progress"
	"github.com/sophialabs/visreg/internal/domain/report"
)

// The engine announces each compared pair on its output with the artifact
// filename, e.g.
//
//	OK: backstop_default_homepage_0_document_0_phone.png
//	MISMATCH: backstop_default_blog_0_latest-blog-container_1_tablet.png (2.51%)
//	ERROR: backstop_default_nav_0_document_0_phone.png
//
// The filename is mapped back to its (scenario, viewport) through the same
// resolver that produced it, so both sides always agree.
var (
	pairLine     = regexp.MustCompile(`\b(OK|MISMATCH|ERROR)\b[^\n]*?(backstop_default_\S+?\.png)`)
	mismatchPart = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)%`)
)

// parseProgressLine turns one engine output line into a progress event if it
// describes a completed pair known to the current run.
func parseProgressLine(line string, files map[string]artifact.Key) (progress.Event, bool) {
	m := pairLine.FindStringSubmatch(line)
	if m == nil {
		return progress.Event{}, false
	}
	key, known := files[m[2]]
	if !known {
		return progress.Event{}, false
	}

	status := report.StatusPass
	if m[1] != "OK" {
		status = report.StatusFail
	}

	var mismatch float64
	if pm := mismatchPart.FindStringSubmatch(line); pm != nil {
		mismatch, _ = strconv.ParseFloat(pm[1], 64)
	}

	return progress.Event{
		Type:               progress.TypeTestProgress,
		Scenario:           key.Label,
		ViewportLabel:      key.ViewportLabel,
		Status:             status,
		MismatchPercentage: mismatch,
	}, true
}
