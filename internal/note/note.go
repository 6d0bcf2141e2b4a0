package note

import (
	"encoding/json"
	"strings"
	"time"
)

// Note is a persisted unit of user-authored text plus derived metadata.
//
// Summary and Tags are nil until the note is enriched. A nil Tags slice
// means "absent"; an empty non-nil slice means "enriched with no tags".
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Summary   *string   `json:"summary,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON leaves tags out only when they are absent, so a note
// enriched with no tags encodes "tags": [].
func (n Note) MarshalJSON() ([]byte, error) {
	type plain Note
	out := struct {
		plain
		Tags *[]string `json:"tags,omitempty"`
	}{plain: plain(n)}
	if n.Tags != nil {
		out.Tags = &n.Tags
	}
	return json.Marshal(out)
}

// Clone returns a deep copy so callers cannot mutate backend state.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	if n.Summary != nil {
		s := *n.Summary
		c.Summary = &s
	}
	if n.Tags != nil {
		c.Tags = make([]string, len(n.Tags))
		copy(c.Tags, n.Tags)
	}
	return &c
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Text    *string   `json:"text,omitempty"`
	Summary *string   `json:"summary,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// Validate rejects a patch that would blank the required text field.
func (p Patch) Validate() error {
	if p.Text != nil && *p.Text == "" {
		return validationf("text must not be empty")
	}
	return nil
}

// Apply copies the present fields of p onto n and stamps UpdatedAt.
func (p Patch) Apply(n *Note, now time.Time) {
	if p.Text != nil {
		n.Text = *p.Text
	}
	if p.Summary != nil {
		s := *p.Summary
		n.Summary = &s
	}
	if p.Tags != nil {
		n.Tags = append([]string{}, (*p.Tags)...)
	}
	if now.Before(n.UpdatedAt) {
		now = n.UpdatedAt
	}
	n.UpdatedAt = now
}

// Query holds the optional search filters. Empty strings mean "no filter".
type Query struct {
	Text string
	Tag  string
}

// Matches reports whether n satisfies both filters of q.
//
// Text matches case-insensitively as a substring of the note text, its
// summary, or any tag. Tag matches case-insensitively by exact equality
// against any tag.
func (q Query) Matches(n *Note) bool {
	if q.Tag != "" && !hasTag(n.Tags, q.Tag) {
		return false
	}
	if q.Text == "" {
		return true
	}
	needle := strings.ToLower(q.Text)
	if strings.Contains(strings.ToLower(n.Text), needle) {
		return true
	}
	if n.Summary != nil && strings.Contains(strings.ToLower(*n.Summary), needle) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Filter returns the notes in ns that match q, preserving order.
func Filter(ns []*Note, q Query) []*Note {
	out := make([]*Note, 0, len(ns))
	for _, n := range ns {
		if q.Matches(n) {
			out = append(out, n)
		}
	}
	return out
}
