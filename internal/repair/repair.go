// Package repair fixes formatting damage in the travel page source left by
// editors that split template literals.
package repair

import "regexp"

var (
	brokenInterpolation = regexp.MustCompile(`\$\s+\{`)
	blankRuns           = regexp.MustCompile(`\n{3,}`)
)

// Changes counts the rewrites Fix applied.
type Changes struct {
	Interpolations int // "$ {" joined back into "${"
	BlankRuns      int // runs of 3+ newlines collapsed to one blank line
}

// Any reports whether anything changed.
func (c Changes) Any() bool { return c.Interpolations+c.BlankRuns > 0 }

// Fix joins "$" and "{" separated by whitespace, including newlines, and
// collapses three or more consecutive newlines into two.
func Fix(text string) (string, Changes) {
	var ch Changes

	ch.Interpolations = len(brokenInterpolation.FindAllStringIndex(text, -1))
	text = brokenInterpolation.ReplaceAllString(text, "${")

	ch.BlankRuns = len(blankRuns.FindAllStringIndex(text, -1))
	text = blankRuns.ReplaceAllString(text, "\n\n")

	return text, ch
}
