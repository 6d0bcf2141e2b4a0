package enrich

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// RuleBasedName is the name of the deterministic fallback provider.
	RuleBasedName = "Rule-based"

	maxSummaryRunes = 100
	maxTags         = 5
	ellipsis        = "..."
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// RuleBased is the dependency-free provider. It is always available and
// fails only for empty input.
type RuleBased struct{}

func NewRuleBased() *RuleBased { return &RuleBased{} }

func (*RuleBased) Name() string    { return RuleBasedName }
func (*RuleBased) Available() bool { return true }

func (*RuleBased) Enrich(_ context.Context, text string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyText
	}
	text = strings.ToValidUTF8(text, "�")
	return Result{
		Summary: truncateSummary(text),
		Tags:    alphanumericTags(text),
	}, nil
}

// truncateSummary trims text and cuts it to at most 100 characters,
// ending in "..." when cut. Whitespace-only text is returned as is so the
// summary is never empty.
func truncateSummary(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		trimmed = text
	}
	if utf8.RuneCountInString(trimmed) <= maxSummaryRunes {
		return trimmed
	}
	runes := []rune(trimmed)
	return string(runes[:maxSummaryRunes-len(ellipsis)]) + ellipsis
}

// alphanumericTags returns up to five distinct lowercase [a-z0-9] tokens
// in first-occurrence order.
func alphanumericTags(text string) []string {
	return firstDistinct(nonAlphanumeric.Split(strings.ToLower(text), -1), maxTags)
}

func firstDistinct(tokens []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == limit {
			break
		}
	}
	return out
}
