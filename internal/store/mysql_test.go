package store

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/notesd/internal/note"
)

var rowColumns = []string{"id", "text", "summary", "tags", "created_at", "updated_at"}

func newMockMySQL(t *testing.T) (*sqlRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newSQLRepository(db, mysqlDialect, nil), mock
}

func expectSchema(mock sqlmock.Sqlmock) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS notes")).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestMySQL_CreateInitializesSchemaOnce(t *testing.T) {
	repo, mock := newMockMySQL(t)
	ctx := context.Background()

	expectSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notes (id, text, summary, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)")).
		WithArgs(sqlmock.AnyArg(), "hello", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notes")).
		WithArgs(sqlmock.AnyArg(), "world", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))

	n1, err := repo.Create(ctx, "hello")
	require.NoError(t, err)
	n2, err := repo.Create(ctx, "world")
	require.NoError(t, err)
	assert.True(t, n2.CreatedAt.After(n1.CreatedAt))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_ListBreaksTimestampTies(t *testing.T) {
	assert.Contains(t, mysqlDialect.schema[0], "seq BIGINT NOT NULL AUTO_INCREMENT")

	repo, mock := newMockMySQL(t)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	expectSchema(mock)
	mock.ExpectQuery(regexp.QuoteMeta("FROM notes ORDER BY created_at DESC, seq DESC")).
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow("second", "b", nil, nil, at, at).
			AddRow("first", "a", nil, nil, at, at))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_SchemaFailureIsRetried(t *testing.T) {
	repo, mock := newMockMySQL(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS notes")).
		WillReturnError(errors.New("connection refused"))
	expectSchema(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, text, summary, tags, created_at, updated_at FROM notes ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(rowColumns))

	_, err := repo.List(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, note.ErrBackendUnavailable)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_GetDecodesRow(t *testing.T) {
	repo, mock := newMockMySQL(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC)

	expectSchema(mock)
	mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = ?")).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(rowColumns).AddRow("n1", "hello", "greeting", `["a","b"]`, ts, ts))
	mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = ?")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(rowColumns))

	got, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Text)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "greeting", *got.Summary)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.True(t, got.CreatedAt.Equal(ts))

	missing, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_PatchUpdatesThenReadsBack(t *testing.T) {
	repo, mock := newMockMySQL(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	expectSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notes SET updated_at = ?, summary = ?, tags = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), "short", `["x"]`, "n1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = ?")).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(rowColumns).AddRow("n1", "hello", "short", `["x"]`, ts, ts.Add(time.Second)))

	summary := "short"
	tags := []string{"x"}
	got, err := repo.Patch(ctx, "n1", note.Patch{Summary: &summary, Tags: &tags})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"x"}, got.Tags)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_PatchUnknownIDSkipsReadBack(t *testing.T) {
	repo, mock := newMockMySQL(t)

	expectSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notes SET updated_at = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	got, err := repo.Patch(context.Background(), "missing", note.Patch{})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_Delete(t *testing.T) {
	repo, mock := newMockMySQL(t)
	ctx := context.Background()

	expectSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE id = ?")).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE id = ?")).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_QueryErrorIsBackendUnavailable(t *testing.T) {
	repo, mock := newMockMySQL(t)

	expectSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes")).
		WillReturnError(errors.New("broken pipe"))

	_, err := repo.Delete(context.Background(), "n1")
	assert.ErrorIs(t, err, note.ErrBackendUnavailable)
}

func TestMySQLOptions_Config(t *testing.T) {
	opts := MySQLOptions{}.withDefaults()
	assert.Equal(t, "localhost", opts.Host)
	assert.Equal(t, 3306, opts.Port)
	assert.Equal(t, "root", opts.User)
	assert.Equal(t, "notes_db", opts.Database)

	cfg := opts.config(opts.Database)
	assert.Equal(t, "localhost:3306", cfg.Addr)
	assert.True(t, cfg.ParseTime)
	assert.Contains(t, cfg.FormatDSN(), "/notes_db")

	server := opts.config("")
	assert.Empty(t, server.DBName)
}

func TestEscapeIdentifier(t *testing.T) {
	assert.Equal(t, "notes", escapeIdentifier("notes"))
	assert.Equal(t, "a``b", escapeIdentifier("a`b"))
}

// TestMySQL_Live runs the contract against a real server when
// NOTESD_TEST_MYSQL_HOST is set.
func TestMySQL_Live(t *testing.T) {
	host := os.Getenv("NOTESD_TEST_MYSQL_HOST")
	if host == "" {
		t.Skip("NOTESD_TEST_MYSQL_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("NOTESD_TEST_MYSQL_PORT"))

	runRepositoryContract(t, func(t *testing.T) note.Repository {
		repo, err := NewMySQL(MySQLOptions{
			Host:     host,
			Port:     port,
			User:     os.Getenv("NOTESD_TEST_MYSQL_USER"),
			Password: os.Getenv("NOTESD_TEST_MYSQL_PASSWORD"),
			Database: "notesd_test_" + strconv.FormatInt(time.Now().UnixNano(), 36),
		}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}
