//go:build cgo

package enrich

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

var embeddingModels = map[string]fastembed.EmbeddingModel{
	"bge-small-en-v1.5":      fastembed.BGESmallENV15,
	"BAAI/bge-small-en-v1.5": fastembed.BGESmallENV15,
	"bge-base-en-v1.5":       fastembed.BGEBaseENV15,
	"BAAI/bge-base-en-v1.5":  fastembed.BGEBaseENV15,
	"all-MiniLM-L6-v2":       fastembed.AllMiniLML6V2,
}

// embeddingPipeline picks the sentence whose embedding is closest to the
// embedding of the whole text, an extractive summary.
type embeddingPipeline struct {
	mu    sync.Mutex
	model *fastembed.FlagEmbedding
}

func newEmbeddingPipeline(opts LocalOptions) (pipeline, error) {
	model, ok := embeddingModels[opts.Model]
	if !ok {
		return nil, fmt.Errorf("unsupported local model %q", opts.Model)
	}
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	showProgress := false
	fe, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            512,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing fastembed: %w", err)
	}
	return &embeddingPipeline{model: fe}, nil
}

func (p *embeddingPipeline) Summarize(ctx context.Context, text string) (string, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return "", fmt.Errorf("no sentences in text")
	}
	if len(sentences) == 1 {
		return sentences[0], nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.model.QueryEmbed(text)
	if err != nil {
		return "", fmt.Errorf("embedding text: %w", err)
	}
	vecs, err := p.model.PassageEmbed(sentences, 64)
	if err != nil {
		return "", fmt.Errorf("embedding sentences: %w", err)
	}

	best, bestScore := 0, math.Inf(-1)
	for i, v := range vecs {
		if score := cosine(doc, v); score > bestScore {
			best, bestScore = i, score
		}
	}
	return sentences[best], nil
}

func (p *embeddingPipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model.Destroy()
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
