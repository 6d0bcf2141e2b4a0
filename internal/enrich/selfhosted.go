package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/huggingface"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/config"
)

// Self-hosted provider names.
const (
	OllamaName      = "Ollama"
	HuggingFaceName = "HuggingFace"
)

// anonymousToken is sent to inference servers that run without auth; the
// client refuses to start without some token.
const anonymousToken = "anonymous"

// SelfHosted enriches through a model server on the local network. The
// langchaingo client is built on first use.
type SelfHosted struct {
	name   string
	cfg    config.SelfHostedConfig
	build  func(config.SelfHostedConfig, *http.Client) (llms.Model, error)
	logger *zap.Logger

	once     sync.Once
	model    llms.Model
	buildErr error
}

// NewOllama creates the Ollama provider. Responses are requested in JSON
// format.
func NewOllama(cfg config.SelfHostedConfig, logger *zap.Logger) *SelfHosted {
	return newSelfHosted(OllamaName, cfg, buildOllama, logger)
}

// NewHuggingFace creates the provider for a text-generation-inference
// endpoint.
func NewHuggingFace(cfg config.SelfHostedConfig, logger *zap.Logger) *SelfHosted {
	return newSelfHosted(HuggingFaceName, cfg, buildHuggingFace, logger)
}

// Matches accepts the provider name with or without separators, so
// "hugging face" and "hugging-face" select HuggingFace.
func (s *SelfHosted) Matches(preference string) bool {
	name, pref := compactName(s.name), compactName(preference)
	if pref == "" {
		return false
	}
	return strings.Contains(name, pref) || strings.Contains(pref, name)
}

var nameSeparators = strings.NewReplacer(" ", "", "-", "", "_", "")

func compactName(s string) string {
	return nameSeparators.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func newSelfHosted(name string, cfg config.SelfHostedConfig, build func(config.SelfHostedConfig, *http.Client) (llms.Model, error), logger *zap.Logger) *SelfHosted {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelfHosted{
		name:   name,
		cfg:    cfg,
		build:  build,
		logger: logger.With(zap.String("provider", name)),
	}
}

func buildOllama(cfg config.SelfHostedConfig, client *http.Client) (llms.Model, error) {
	return ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
		ollama.WithFormat("json"),
		ollama.WithHTTPClient(client),
	)
}

func buildHuggingFace(cfg config.SelfHostedConfig, client *http.Client) (llms.Model, error) {
	token := anonymousToken
	if cfg.APIKey.IsSet() {
		token = cfg.APIKey.Value()
	}
	return huggingface.New(
		huggingface.WithURL(strings.TrimRight(cfg.BaseURL, "/")),
		huggingface.WithModel(cfg.Model),
		huggingface.WithToken(token),
		huggingface.WithHTTPClient(client),
	)
}

func (s *SelfHosted) Name() string { return s.name }

func (s *SelfHosted) Available() bool { return s.cfg.Configured() }

func (s *SelfHosted) Enrich(ctx context.Context, text string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyText
	}

	model, err := s.load()
	if err != nil {
		return Result{}, providerError(s.name, err)
	}

	prompt := buildPrompt(text)
	content, err := llms.GenerateFromSinglePrompt(ctx, model, prompt,
		llms.WithMaxTokens(chatMaxTokens),
		llms.WithTemperature(chatTemperature),
	)
	if err != nil {
		return Result{}, providerError(s.name, err)
	}

	// Text-generation endpoints may echo the prompt ahead of the answer.
	content = strings.TrimPrefix(content, prompt)

	res, err := parseSelfHosted(content)
	if err != nil {
		return Result{}, providerError(s.name, err)
	}
	return res, nil
}

func (s *SelfHosted) load() (llms.Model, error) {
	s.once.Do(func() {
		u, err := url.Parse(s.cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			s.buildErr = fmt.Errorf("invalid base URL %q", s.cfg.BaseURL)
			return
		}
		client := &http.Client{Timeout: s.cfg.Timeout.Duration()}
		s.model, s.buildErr = s.build(s.cfg, client)
		if s.buildErr == nil {
			s.logger.Debug("client initialized", zap.String("model", s.cfg.Model), zap.String("base_url", s.cfg.BaseURL))
		}
	})
	return s.model, s.buildErr
}
