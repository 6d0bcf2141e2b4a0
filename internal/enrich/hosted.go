package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/config"
)

// Hosted provider names.
const (
	GroqName   = "Groq"
	OpenAIName = "OpenAI"
)

// Hosted enriches through an OpenAI-compatible hosted API. It is available
// once an API key is configured.
type Hosted struct {
	name        string
	configured  bool
	client      *chatClient
	summaryLine func(string) string
	logger      *zap.Logger
}

// NewOpenAI creates the OpenAI provider.
func NewOpenAI(cfg config.HostedConfig, logger *zap.Logger) *Hosted {
	return newHosted(OpenAIName, cfg, firstLineSummary, logger)
}

// NewGroq creates the Groq provider. Groq models often answer with a
// labelled "Summary:" line when they miss the JSON format, so its repair
// looks for that line first.
func NewGroq(cfg config.HostedConfig, logger *zap.Logger) *Hosted {
	return newHosted(GroqName, cfg, labeledLineSummary, logger)
}

func newHosted(name string, cfg config.HostedConfig, summaryLine func(string) string, logger *zap.Logger) *Hosted {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hosted{
		name:        name,
		configured:  cfg.APIKey.IsSet() && cfg.BaseURL != "" && cfg.Model != "",
		client:      newChatClient(cfg.BaseURL, cfg.Model, cfg.APIKey.Value(), cfg.Timeout.Duration(), cfg.MaxRetries),
		summaryLine: summaryLine,
		logger:      logger.With(zap.String("provider", name)),
	}
}

func (h *Hosted) Name() string    { return h.name }
func (h *Hosted) Available() bool { return h.configured }

func (h *Hosted) Enrich(ctx context.Context, text string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyText
	}

	content, err := h.client.Complete(ctx, buildPrompt(text))
	if err != nil {
		return Result{}, providerError(h.name, err)
	}

	res, err := parseHosted(content, h.summaryLine)
	if err != nil {
		h.logger.Debug("unusable completion", zap.Int("content_length", len(content)), zap.Error(err))
		return Result{}, providerError(h.name, err)
	}
	return res, nil
}
