package note

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Resolution is the timestamp precision every backend can store losslessly.
const Resolution = time.Microsecond

// Clock hands out strictly increasing UTC timestamps at Resolution, so
// notes created in sequence never share a CreatedAt value.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewClock returns a Clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Now returns the next timestamp.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(Resolution)
	if !t.After(c.last) {
		t = c.last.Add(Resolution)
	}
	c.last = t
	return t
}

// NewID allocates an opaque, globally unique note id.
func NewID() string {
	return uuid.NewString()
}

// New builds a fresh note for text using c for both timestamps.
func New(text string, c *Clock) (*Note, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	now := c.Now()
	return &Note{
		ID:        NewID(),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
