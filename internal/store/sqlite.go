package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/fyrsmithlabs/notesd/internal/note"
)

// DefaultSQLiteFile is used when no database file is configured.
const DefaultSQLiteFile = "./notes.db"

var sqliteDialect = dialect{
	name: BackendSQLite,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			summary TEXT,
			tags TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes (created_at)`,
	},
	orderBy: "created_at DESC, rowid DESC",
	timeArg: func(t time.Time) any { return formatTime(t) },
}

// NewSQLite opens (but does not initialize) an embedded SQLite database
// at path. The parent directory is created if missing.
func NewSQLite(path string, logger *zap.Logger) (note.Repository, error) {
	if path == "" {
		path = DefaultSQLiteFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, note.Unavailable(BackendSQLite, fmt.Errorf("creating database directory: %w", err))
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, note.Unavailable(BackendSQLite, err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return newSQLRepository(db, sqliteDialect, logger), nil
}
