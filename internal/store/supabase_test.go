package store

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/fyrsmithlabs/notesd/internal/note"
)

func TestNoteRecord_InsertionSequence(t *testing.T) {
	sch, err := schema.Parse(&noteRecord{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	seq := sch.LookUpField("Seq")
	require.NotNil(t, seq)
	assert.Equal(t, "seq", seq.DBName)
	assert.True(t, seq.AutoIncrement)
	assert.True(t, seq.HasDefaultValue, "zero seq must be left to the database on insert")
}

func TestNoteRecord_RoundTrip(t *testing.T) {
	summary := "s"
	n := &note.Note{
		ID:        "n1",
		Text:      "hello",
		Summary:   &summary,
		Tags:      []string{"a"},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	rec, err := recordFromNote(n)
	require.NoError(t, err)
	assert.Equal(t, "notes", rec.TableName())
	require.NotNil(t, rec.Tags)
	assert.Equal(t, `["a"]`, *rec.Tags)

	back, err := rec.toNote()
	require.NoError(t, err)
	assert.Equal(t, n, back)

	n.Tags = nil
	rec, err = recordFromNote(n)
	require.NoError(t, err)
	assert.Nil(t, rec.Tags)
}

func TestNewSupabase_RequiresURL(t *testing.T) {
	_, err := NewSupabase("", nil)
	assert.ErrorIs(t, err, note.ErrBackendUnavailable)
}

// TestSupabase_Live runs the contract against a Postgres database when
// NOTESD_TEST_POSTGRES_URL is set. The notes table is emptied per case.
func TestSupabase_Live(t *testing.T) {
	dsn := os.Getenv("NOTESD_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("NOTESD_TEST_POSTGRES_URL not set")
	}

	runRepositoryContract(t, func(t *testing.T) note.Repository {
		repo, err := NewSupabase(dsn, nil)
		require.NoError(t, err)
		require.NoError(t, repo.db.Exec("DROP TABLE IF EXISTS notes").Error)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}
