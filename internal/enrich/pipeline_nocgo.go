//go:build !cgo

package enrich

func newEmbeddingPipeline(LocalOptions) (pipeline, error) {
	return nil, ErrPipelineUnavailable
}
