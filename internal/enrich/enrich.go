package enrich

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrProvider marks a single provider's transport or parse failure.
	ErrProvider = errors.New("provider error")

	// ErrExhaustedFallback is returned when the rule-based fallback itself
	// fails, which only happens for empty input.
	ErrExhaustedFallback = errors.New("enrichment fallback exhausted")

	// ErrEmptyText is returned by providers for empty input.
	ErrEmptyText = errors.New("text is empty")
)

// Result is the derived summary and tags for one piece of text.
type Result struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Provider turns text into a Result.
type Provider interface {
	// Name identifies the provider for preference matching and logs.
	Name() string

	// Available reports whether the provider's prerequisites are present.
	// It must be fast and must not perform network I/O.
	Available() bool

	Enrich(ctx context.Context, text string) (Result, error)
}

// ProviderError records which provider failed.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

func providerError(name string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: name, Err: err}
}
