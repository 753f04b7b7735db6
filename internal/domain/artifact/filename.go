// Package artifact resolves the canonical on-disk names of screenshot
// artifacts. The diff engine, the reference sync tracker and the approve
// operation all have to agree on the same physical file, so this is the only
// place the naming convention lives.
package artifact

import (
	"fmt"
	"regexp"
	"strings"
)

const prefix = "backstop_default"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	selectorChars = regexp.MustCompile(`[#.]`)
	separatorRun  = regexp.MustCompile(`[\s>]+`)
)

// FileName composes the canonical artifact filename for one
// (scenario, selector, viewport) combination. It is pure and total: the same
// inputs always produce the same name and no input can fail.
func FileName(label string, selectorIndex int, selector string, viewportIndex int, viewportLabel string) string {
	return fmt.Sprintf("%s_%s_%d_%s_%d_%s.png",
		prefix,
		SanitizeLabel(label),
		selectorIndex,
		SanitizeSelector(selector),
		viewportIndex,
		viewportLabel,
	)
}

// SanitizeLabel collapses every run of whitespace in a scenario label into a
// single underscore.
func SanitizeLabel(label string) string {
	return whitespaceRun.ReplaceAllString(label, "_")
}

// SanitizeSelector normalizes a CSS selector into a filename segment:
// "#" and "." are stripped, descendant/child separators and whitespace become
// hyphens, and the result is lower-cased. "#latest-blog > .container" becomes
// "latest-blog-container".
func SanitizeSelector(selector string) string {
	s := selectorChars.ReplaceAllString(selector, "")
	s = separatorRun.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.ToLower(s)
}
