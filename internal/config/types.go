package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Secret holds a credential. It prints and serializes as [REDACTED];
// call Value to read it.
type Secret string

const redacted = "[REDACTED]"

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "Secret(" + redacted + ")"
}

// Value returns the raw secret.
func (s Secret) Value() string {
	return string(s)
}

// IsSet reports whether the secret holds a usable credential. Blank values
// and template placeholders such as "your_openai_api_key_here" are unset.
func (s Secret) IsSet() bool {
	return !IsPlaceholder(string(s))
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}

// IsPlaceholder reports whether v is empty or an unfilled template value
// copied from an example env file.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "your_") || strings.HasPrefix(lower, "your-") ||
		strings.HasSuffix(lower, "_here") || lower == "changeme"
}

// Flag is a loosely parsed boolean used for platform marker variables,
// which are set to values like "1", "true" or a function name.
type Flag string

// Set reports whether the flag holds any value other than an explicit false.
func (f Flag) Set() bool {
	switch strings.ToLower(strings.TrimSpace(string(f))) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
