package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/note"
)

const noteColumns = "id, text, summary, tags, created_at, updated_at"

// dialect captures what differs between database/sql backends.
type dialect struct {
	name string

	// schema holds idempotent statements run once before first use.
	schema []string

	// orderBy is appended to SELECTs that must follow List order.
	orderBy string

	// timeArg converts a timestamp into a driver argument.
	timeArg func(time.Time) any
}

// sqlRepository is the database/sql implementation shared by the sqlite
// and mysql backends.
//
// Statements are executed individually without a transaction. Patch is
// an UPDATE followed by a read-back, so a concurrent Delete between the
// two statements makes Patch return nil although the update applied.
type sqlRepository struct {
	db      *sql.DB
	dialect dialect
	clock   *note.Clock
	logger  *zap.Logger

	// prepare runs before the schema statements on first use.
	prepare func(ctx context.Context) error

	initMu      sync.Mutex
	initialized atomic.Bool
}

func newSQLRepository(db *sql.DB, d dialect, logger *zap.Logger) *sqlRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sqlRepository{
		db:      db,
		dialect: d,
		clock:   note.NewClock(),
		logger:  logger,
	}
}

func (r *sqlRepository) Name() string { return r.dialect.name }

// ensure creates the notes table on first use.
func (r *sqlRepository) ensure(ctx context.Context) error {
	if r.initialized.Load() {
		return nil
	}
	r.initMu.Lock()
	defer r.initMu.Unlock()
	if r.initialized.Load() {
		return nil
	}

	if r.prepare != nil {
		if err := r.prepare(ctx); err != nil {
			return note.Unavailable(r.dialect.name, err)
		}
	}
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return note.Unavailable(r.dialect.name, fmt.Errorf("ensuring schema: %w", err))
		}
	}

	r.initialized.Store(true)
	r.logger.Info("storage schema ready", zap.String("backend", r.dialect.name))
	return nil
}

func (r *sqlRepository) unavailable(op string, err error) error {
	return note.Unavailable(r.dialect.name, fmt.Errorf("%s: %w", op, err))
}

func (r *sqlRepository) Create(ctx context.Context, text string) (*note.Note, error) {
	n, err := note.New(text, r.clock)
	if err != nil {
		return nil, err
	}
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO notes ("+noteColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		n.ID, n.Text, nil, nil, r.dialect.timeArg(n.CreatedAt), r.dialect.timeArg(n.UpdatedAt),
	)
	if err != nil {
		return nil, r.unavailable("inserting note", err)
	}

	r.logger.Debug("note created", zap.String("backend", r.dialect.name), zap.String("note_id", n.ID))
	return n, nil
}

func (r *sqlRepository) List(ctx context.Context) ([]*note.Note, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT "+noteColumns+" FROM notes ORDER BY "+r.dialect.orderBy)
	if err != nil {
		return nil, r.unavailable("listing notes", err)
	}
	defer rows.Close()

	var out []*note.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, r.unavailable("scanning note", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, r.unavailable("listing notes", err)
	}
	if out == nil {
		out = []*note.Note{}
	}
	return out, nil
}

func (r *sqlRepository) Get(ctx context.Context, id string) (*note.Note, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.unavailable("reading note", err)
	}
	return n, nil
}

func (r *sqlRepository) Patch(ctx context.Context, id string, p note.Patch) (*note.Note, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{r.dialect.timeArg(r.clock.Now())}
	if p.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *p.Text)
	}
	if p.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *p.Summary)
	}
	if p.Tags != nil {
		tags, err := encodeTags(append([]string{}, (*p.Tags)...))
		if err != nil {
			return nil, err
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, "UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, r.unavailable("updating note", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, nil
	}

	return r.Get(ctx, id)
}

func (r *sqlRepository) Search(ctx context.Context, q note.Query) ([]*note.Note, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return note.Filter(all, q), nil
}

func (r *sqlRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := r.ensure(ctx); err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return false, r.unavailable("deleting note", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, r.unavailable("deleting note", err)
	}
	return affected > 0, nil
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (*note.Note, error) {
	var (
		n                  note.Note
		summary, tags      sql.NullString
		createdAt, updated dbTime
	)
	if err := s.Scan(&n.ID, &n.Text, &summary, &tags, &createdAt, &updated); err != nil {
		return nil, err
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return nil, err
	}
	n.Summary = stringPtr(summary)
	n.Tags = decoded
	n.CreatedAt = createdAt.Time
	n.UpdatedAt = updated.Time
	return &n, nil
}
