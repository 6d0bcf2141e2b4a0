package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fyrsmithlabs/notesd/internal/note"
)

// noteRecord is the row shape of the managed Postgres notes table.
type noteRecord struct {
	ID        string    `gorm:"type:text;primaryKey"`
	Text      string    `gorm:"type:text;not null"`
	Summary   *string   `gorm:"type:text"`
	Tags      *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;autoUpdateTime:false"`

	// Seq is assigned by the database in insertion order and breaks
	// CreatedAt ties between writers with separate clocks.
	Seq int64 `gorm:"autoIncrement;not null;uniqueIndex"`
}

func (noteRecord) TableName() string { return "notes" }

func recordFromNote(n *note.Note) (noteRecord, error) {
	tags, err := encodeTags(n.Tags)
	if err != nil {
		return noteRecord{}, err
	}
	return noteRecord{
		ID:        n.ID,
		Text:      n.Text,
		Summary:   n.Summary,
		Tags:      stringPtr(tags),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}, nil
}

func (r noteRecord) toNote() (*note.Note, error) {
	tags, err := decodeTags(nullableString(r.Tags))
	if err != nil {
		return nil, err
	}
	return &note.Note{
		ID:        r.ID,
		Text:      r.Text,
		Summary:   r.Summary,
		Tags:      tags,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}

// Supabase stores notes in a managed Postgres database through gorm.
type Supabase struct {
	db     *gorm.DB
	clock  *note.Clock
	logger *zap.Logger

	initMu      sync.Mutex
	initialized atomic.Bool
}

// NewSupabase prepares a gorm handle for dsn. No connection is made
// until the first operation.
func NewSupabase(dsn string, logger *zap.Logger) (*Supabase, error) {
	if dsn == "" {
		return nil, note.Unavailable(BackendSupabase, errors.New("database url is not configured"))
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, note.Unavailable(BackendSupabase, err)
	}
	return newSupabase(db, logger), nil
}

func newSupabase(db *gorm.DB, logger *zap.Logger) *Supabase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supabase{db: db, clock: note.NewClock(), logger: logger}
}

func (s *Supabase) Name() string { return BackendSupabase }

func (s *Supabase) ensure(ctx context.Context) error {
	if s.initialized.Load() {
		return nil
	}
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initialized.Load() {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&noteRecord{}); err != nil {
		return note.Unavailable(BackendSupabase, fmt.Errorf("migrating notes table: %w", err))
	}
	s.initialized.Store(true)
	s.logger.Info("storage schema ready", zap.String("backend", BackendSupabase))
	return nil
}

func (s *Supabase) Create(ctx context.Context, text string) (*note.Note, error) {
	n, err := note.New(text, s.clock)
	if err != nil {
		return nil, err
	}
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	rec, err := recordFromNote(n)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, note.Unavailable(BackendSupabase, err)
	}
	return n, nil
}

func (s *Supabase) List(ctx context.Context) ([]*note.Note, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	var recs []noteRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC, seq DESC").Find(&recs).Error; err != nil {
		return nil, note.Unavailable(BackendSupabase, err)
	}
	out := make([]*note.Note, 0, len(recs))
	for _, rec := range recs {
		n, err := rec.toNote()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Supabase) Get(ctx context.Context, id string) (*note.Note, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	var rec noteRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, note.Unavailable(BackendSupabase, err)
	}
	return rec.toNote()
}

// Patch updates then reads back without a transaction; see sqlRepository.
func (s *Supabase) Patch(ctx context.Context, id string, p note.Patch) (*note.Note, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": s.clock.Now()}
	if p.Text != nil {
		updates["text"] = *p.Text
	}
	if p.Summary != nil {
		updates["summary"] = *p.Summary
	}
	if p.Tags != nil {
		tags, err := encodeTags(append([]string{}, (*p.Tags)...))
		if err != nil {
			return nil, err
		}
		updates["tags"] = tags
	}

	res := s.db.WithContext(ctx).Model(&noteRecord{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, note.Unavailable(BackendSupabase, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.Get(ctx, id)
}

func (s *Supabase) Search(ctx context.Context, q note.Query) ([]*note.Note, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return note.Filter(all, q), nil
}

func (s *Supabase) Delete(ctx context.Context, id string) (bool, error) {
	if err := s.ensure(ctx); err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&noteRecord{})
	if res.Error != nil {
		return false, note.Unavailable(BackendSupabase, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Supabase) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
