package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/config"
)

const instrumentationName = "github.com/fyrsmithlabs/notesd/internal/enrich"

// matcher lets a provider answer to preference strings other than its name.
type matcher interface {
	Matches(preference string) bool
}

// Service is the enrichment façade. It selects one provider per call and
// recovers from that provider's failure with a single rule-based attempt.
type Service struct {
	providers  []Provider
	fallback   Provider
	preference string
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewService creates a façade over providers in priority order. A
// rule-based provider is appended when the list does not end with one.
func NewService(providers []Provider, preference string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	ps := make([]Provider, 0, len(providers)+1)
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if len(ps) == 0 || ps[len(ps)-1].Name() != RuleBasedName {
		ps = append(ps, NewRuleBased())
	}
	return &Service{
		providers:  ps,
		fallback:   ps[len(ps)-1],
		preference: strings.ToLower(strings.TrimSpace(preference)),
		logger:     logger.Named("enrich"),
		tracer:     otel.Tracer(instrumentationName),
	}
}

// NewFromConfig builds the façade with every provider in the fixed
// priority order: Local, Ollama, Groq, OpenAI, Hugging Face, Rule-based.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewService([]Provider{
		NewLocal(LocalOptions{
			Preference: cfg.AI.Provider,
			Model:      cfg.Local.Model,
			CacheDir:   cfg.Local.CacheDir,
		}, logger),
		NewOllama(cfg.Ollama, logger),
		NewGroq(cfg.Groq, logger),
		NewOpenAI(cfg.OpenAI, logger),
		NewHuggingFace(cfg.HuggingFace, logger),
		NewRuleBased(),
	}, cfg.AI.Provider, logger)
}

// Providers returns the providers in priority order.
func (s *Service) Providers() []Provider {
	return append([]Provider(nil), s.providers...)
}

// Select returns the provider the next call would use. A preference that
// names an available provider wins; otherwise the first available provider
// in priority order is used.
func (s *Service) Select() Provider {
	if s.preference != "" {
		for _, p := range s.providers {
			if !s.matches(p) {
				continue
			}
			if p.Available() {
				return p
			}
			break
		}
	}
	for _, p := range s.providers {
		if p.Available() {
			return p
		}
	}
	return s.fallback
}

func (s *Service) matches(p Provider) bool {
	if m, ok := p.(matcher); ok && m.Matches(s.preference) {
		return true
	}
	name := strings.ToLower(p.Name())
	return strings.Contains(name, s.preference) || strings.Contains(s.preference, name)
}

// Enrich derives a summary and tags for text. Any failure of the selected
// provider is retried once with the rule-based provider, so for non-empty
// text it does not fail. Empty text yields ErrExhaustedFallback.
func (s *Service) Enrich(ctx context.Context, text string) (Result, error) {
	p := s.Select()
	ctx, span := s.tracer.Start(ctx, "enrich.Enrich",
		trace.WithAttributes(attribute.String("enrich.selected", p.Name())))
	defer span.End()

	res, err := s.invoke(ctx, p, text)
	if err == nil {
		return res, nil
	}
	if p == s.fallback {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("%w: %w", ErrExhaustedFallback, err)
	}

	s.logger.Warn("enrichment provider failed, using rule-based fallback",
		zap.String("provider", p.Name()),
		zap.Error(err),
	)
	FallbacksTotal.WithLabelValues(p.Name()).Inc()
	span.SetAttributes(attribute.Bool("enrich.fallback", true))

	res, ferr := s.invoke(ctx, s.fallback, text)
	if ferr != nil {
		span.SetStatus(codes.Error, ferr.Error())
		return Result{}, fmt.Errorf("%w: %w", ErrExhaustedFallback, errors.Join(err, ferr))
	}
	return res, nil
}

func (s *Service) invoke(ctx context.Context, p Provider, text string) (res Result, err error) {
	name := p.Name()
	ctx, span := s.tracer.Start(ctx, "enrich.provider",
		trace.WithAttributes(attribute.String("enrich.provider", name)))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = providerError(name, fmt.Errorf("panic: %v", r))
		}
		result := "success"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		Duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(name, result).Inc()
	}()

	res, err = p.Enrich(ctx, text)
	if err != nil {
		return Result{}, providerError(name, err)
	}
	if strings.TrimSpace(res.Summary) == "" {
		return Result{}, providerError(name, errors.New("empty summary"))
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}
	s.logger.Debug("note text enriched", zap.String("provider", name), zap.Int("tags", len(res.Tags)))
	return res, nil
}

// Close releases provider resources such as a loaded local model.
func (s *Service) Close() error {
	var errs []error
	for _, p := range s.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
