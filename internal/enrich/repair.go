package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// enrichPrompt is sent to every remote provider with the scrubbed note text.
const enrichPrompt = "Summarize in ≤25 words and propose 1-5 short keyword tags for:\n\n%s\n\nReturn JSON with keys: summary, tags."

// fallbackTag is used by self-hosted providers when the model proposes no tags.
const fallbackTag = "general"

var (
	errInvalidFormat = errors.New("invalid response format")
	errEmptyResponse = errors.New("empty response from model")

	codeFence  = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```\\s*$")
	jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)
	words      = regexp.MustCompile(`\b\w+\b`)
	summaryKey = regexp.MustCompile(`(?i)^\s*["']?summary["']?\s*:\s*`)
)

func buildPrompt(text string) string {
	return fmt.Sprintf(enrichPrompt, scrubSecrets(text))
}

// stripCodeFence removes a Markdown code fence wrapping the whole content.
func stripCodeFence(content string) string {
	if m := codeFence.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

// rawResult keeps the fields undecoded so their JSON types can be checked.
type rawResult struct {
	Summary json.RawMessage `json:"summary"`
	Tags    json.RawMessage `json:"tags"`
}

// decodeResult parses a {summary, tags} object. A syntax error is returned
// as is; a well-formed body with the wrong shape yields errInvalidFormat.
func decodeResult(body string) (Result, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Result{}, err
	}

	var summary string
	if len(raw.Summary) == 0 || json.Unmarshal(raw.Summary, &summary) != nil {
		return Result{}, errInvalidFormat
	}
	var tags []any
	if len(raw.Tags) == 0 || json.Unmarshal(raw.Tags, &tags) != nil || tags == nil {
		return Result{}, errInvalidFormat
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return Result{}, errInvalidFormat
	}
	return Result{Summary: summary, Tags: normalizeTags(tags)}, nil
}

// normalizeTags lowercases, trims and de-duplicates string tags, keeping at
// most five. Non-string elements are dropped.
func normalizeTags(tags []any) []string {
	tokens := make([]string, 0, len(tags))
	for _, t := range tags {
		s, ok := t.(string)
		if !ok {
			continue
		}
		tokens = append(tokens, strings.ToLower(strings.TrimSpace(s)))
	}
	return firstDistinct(tokens, maxTags)
}

// wordTags returns up to five distinct lowercase word tokens.
func wordTags(content string) []string {
	return firstDistinct(words.FindAllString(strings.ToLower(content), -1), maxTags)
}

// parseHosted decodes a hosted chat completion. Content that is not JSON
// is repaired with summaryLine and word tags; JSON of the wrong shape is
// rejected.
func parseHosted(content string, summaryLine func(string) string) (Result, error) {
	body := stripCodeFence(content)
	if body == "" {
		return Result{}, errEmptyResponse
	}

	res, err := decodeResult(body)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, errInvalidFormat) {
		return Result{}, err
	}

	summary := truncateSummary(summaryLine(body))
	tags := wordTags(body)
	if strings.TrimSpace(summary) == "" || len(tags) == 0 {
		return Result{}, fmt.Errorf("unparseable response: %w", err)
	}
	return Result{Summary: summary, Tags: tags}, nil
}

// firstLineSummary returns the first non-empty line without a "summary:"
// label.
func firstLineSummary(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(summaryKey.ReplaceAllString(line, ""))
		if line != "" {
			return trimJSONPunct(line)
		}
	}
	return ""
}

// labeledLineSummary prefers the text after the first colon of a line that
// mentions "summary", falling back to firstLineSummary.
func labeledLineSummary(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(strings.ToLower(line), "summary") {
			continue
		}
		if _, after, ok := strings.Cut(line, ":"); ok {
			if s := trimJSONPunct(strings.TrimSpace(after)); s != "" {
				return s
			}
		}
	}
	return firstLineSummary(content)
}

func trimJSONPunct(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"',{}`))
}

// parseSelfHosted is lenient: it extracts the first {...} span, and when
// that is missing or incomplete it uses the first line and word tags.
// Only empty content is an error.
func parseSelfHosted(content string) (Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Result{}, errEmptyResponse
	}

	if obj := jsonObject.FindString(content); obj != "" {
		if res, err := decodeResult(obj); err == nil {
			if len(res.Tags) == 0 {
				res.Tags = []string{fallbackTag}
			}
			return res, nil
		}
	}

	summary := firstLineSummary(content)
	if summary == "" {
		summary = content
	}
	tags := wordTags(content)
	if len(tags) == 0 {
		tags = []string{fallbackTag}
	}
	return Result{Summary: truncateSummary(summary), Tags: tags}, nil
}
