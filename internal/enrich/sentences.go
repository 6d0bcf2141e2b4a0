package enrich

import (
	"regexp"
	"strings"
)

var sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)

// splitSentences breaks text on terminal punctuation and newlines.
func splitSentences(text string) []string {
	marked := sentenceBoundary.ReplaceAllString(text, "$1\n")
	var out []string
	for _, line := range strings.Split(marked, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
