package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// LocalName is the name of the in-process inference provider.
const LocalName = "Local"

// ErrPipelineUnavailable is returned by pipeline constructors when the
// binary cannot run local inference.
var ErrPipelineUnavailable = errors.New("local inference pipeline not available")

// localAliases are the AI_PROVIDER values that enable local inference.
var localAliases = []string{"local", "llama", "direct-llama"}

// pipeline produces a summary in-process.
type pipeline interface {
	Summarize(ctx context.Context, text string) (string, error)
	Close() error
}

// LocalOptions configures the local provider.
type LocalOptions struct {
	// Preference is the configured provider hint; local inference is only
	// available when it names one of the local aliases.
	Preference string
	Model      string
	CacheDir   string
}

// Local summarizes in-process with an embedding model. The pipeline is
// built on first use and kept for the life of the process. If building or
// running it fails, Local substitutes the rule-based summary with
// frequency-ranked keywords instead of returning an error.
type Local struct {
	opts        LocalOptions
	newPipeline func(LocalOptions) (pipeline, error)
	logger      *zap.Logger

	once    sync.Once
	pipe    pipeline
	pipeErr error
}

// NewLocal creates the local provider. No model is loaded until Enrich.
func NewLocal(opts LocalOptions, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{opts: opts, newPipeline: newEmbeddingPipeline, logger: logger}
}

func (l *Local) Name() string { return LocalName }

// Available reports whether the configured preference asks for local
// inference; loading a model is too expensive to do unasked.
func (l *Local) Available() bool { return l.Matches(l.opts.Preference) }

// Matches reports whether preference is one of the local aliases.
func (l *Local) Matches(preference string) bool {
	pref := strings.ToLower(strings.TrimSpace(preference))
	for _, alias := range localAliases {
		if pref == alias {
			return true
		}
	}
	return false
}

func (l *Local) Enrich(ctx context.Context, text string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyText
	}
	tags := extractKeywords(text)

	pipe, err := l.load()
	if err == nil {
		var summary string
		summary, err = pipe.Summarize(ctx, text)
		if err == nil && strings.TrimSpace(summary) != "" {
			return Result{Summary: truncateSummary(summary), Tags: tags}, nil
		}
		if err == nil {
			err = errors.New("empty summary")
		}
	}

	l.logger.Warn("local inference failed, using keyword heuristic", zap.Error(err))
	return Result{Summary: truncateSummary(text), Tags: tags}, nil
}

func (l *Local) load() (pipeline, error) {
	l.once.Do(func() {
		l.logger.Info("loading local summarization model", zap.String("model", l.opts.Model))
		l.pipe, l.pipeErr = l.newPipeline(l.opts)
	})
	return l.pipe, l.pipeErr
}

// Close releases the pipeline if it was built.
func (l *Local) Close() error {
	if l.pipe != nil {
		return l.pipe.Close()
	}
	return nil
}
