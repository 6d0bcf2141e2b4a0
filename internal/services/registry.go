package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/enrich"
	"github.com/fyrsmithlabs/notesd/internal/logging"
	"github.com/fyrsmithlabs/notesd/internal/note"
)

// Enricher derives a summary and tags for note text.
type Enricher interface {
	Enrich(ctx context.Context, text string) (enrich.Result, error)
}

// Registry provides access to the notesd services.
type Registry interface {
	Notes() note.Repository
	Enricher() Enricher
	Logger() *logging.Logger

	// EnrichNote enriches the stored text of id and writes the summary and
	// tags back. Concurrent calls for the same id are not serialized; the
	// later patch wins.
	EnrichNote(ctx context.Context, id string) (*note.Note, error)

	// RecentNotes returns at most limit notes, newest first.
	RecentNotes(ctx context.Context, limit int) ([]*note.Note, error)

	Close() error
}

// Options configures the registry with service instances.
type Options struct {
	Notes    note.Repository
	Enricher Enricher
	Logger   *logging.Logger
}

// registry is the concrete implementation of Registry.
type registry struct {
	notes    note.Repository
	enricher Enricher
	logger   *logging.Logger
}

// NewRegistry creates a new service registry. Notes and Enricher are
// required.
func NewRegistry(opts Options) (Registry, error) {
	if opts.Notes == nil {
		return nil, errors.New("services: notes repository is required")
	}
	if opts.Enricher == nil {
		return nil, errors.New("services: enricher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &registry{
		notes:    opts.Notes,
		enricher: opts.Enricher,
		logger:   logger,
	}, nil
}

func (r *registry) Notes() note.Repository  { return r.notes }
func (r *registry) Enricher() Enricher      { return r.enricher }
func (r *registry) Logger() *logging.Logger { return r.logger }

func (r *registry) EnrichNote(ctx context.Context, id string) (*note.Note, error) {
	ctx = logging.WithNoteID(ctx, id)

	n, err := r.notes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %s", note.ErrNotFound, id)
	}

	res, err := r.enricher.Enrich(ctx, n.Text)
	if err != nil {
		r.logger.Error(ctx, "enrichment failed", zap.Error(err))
		return nil, err
	}

	summary, tags := res.Summary, res.Tags
	updated, err := r.notes.Patch(ctx, id, note.Patch{Summary: &summary, Tags: &tags})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted between the read and the write.
		return nil, fmt.Errorf("%w: %s", note.ErrNotFound, id)
	}

	r.logger.Info(ctx, "note enriched", zap.Int("tags", len(tags)))
	return updated, nil
}

func (r *registry) RecentNotes(ctx context.Context, limit int) ([]*note.Note, error) {
	notes, err := r.notes.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// Close releases the repository and, when it holds resources, the enricher.
func (r *registry) Close() error {
	errs := []error{r.notes.Close()}
	if c, ok := r.enricher.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
