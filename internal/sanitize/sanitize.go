// Package sanitize normalizes generated story text. The same rules run in
// the web client's preview, so both sides agree on canonical prose.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	dashes          = strings.NewReplacer("—", ",", "–", ",")
	multiSpace      = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforeMark = regexp.MustCompile(`[ \t]+([,.;:!?])`)
	missingSpace    = regexp.MustCompile(`([,.!?])([^\s])`)
	blankRuns       = regexp.MustCompile(`\n{4,}`)
)

// Clean normalizes story text. It is total (never fails) and idempotent;
// empty input yields an empty string.
//
// Rules, in order: em/en dashes become commas; per line, runs of
// horizontal whitespace collapse to one space, whitespace is stripped
// before punctuation, and exactly one space follows each of , . ! ?;
// lines are trimmed; runs of three or more blank lines collapse to one;
// the whole result is trimmed.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = dashes.Replace(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = multiSpace.ReplaceAllString(line, " ")
		line = spaceBeforeMark.ReplaceAllString(line, "$1")
		line = missingSpace.ReplaceAllString(line, "$1 $2")
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")

	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
