package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/note"
)

// MySQLOptions are the connection parameters of the networked backend.
type MySQLOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func (o MySQLOptions) withDefaults() MySQLOptions {
	if o.Host == "" {
		o.Host = "localhost"
	}
	if o.Port == 0 {
		o.Port = 3306
	}
	if o.User == "" {
		o.User = "root"
	}
	if o.Database == "" {
		o.Database = "notes_db"
	}
	return o
}

// config builds a driver config. An empty database addresses the server
// rather than a schema, which is needed to create the database itself.
func (o MySQLOptions) config(database string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg
}

var mysqlDialect = dialect{
	name: BackendMySQL,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id VARCHAR(36) PRIMARY KEY,
			text TEXT NOT NULL,
			summary TEXT,
			tags JSON,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			seq BIGINT NOT NULL AUTO_INCREMENT,
			UNIQUE KEY uq_notes_seq (seq),
			INDEX idx_notes_created_at (created_at)
		)`,
	},
	// seq breaks created_at ties between writers with separate clocks.
	orderBy: "created_at DESC, seq DESC",
	timeArg: func(t time.Time) any { return t.UTC() },
}

// NewMySQL opens a pooled connection to the configured database. The
// database is created on first use if the server lacks it.
func NewMySQL(opts MySQLOptions, logger *zap.Logger) (note.Repository, error) {
	opts = opts.withDefaults()

	db, err := sql.Open("mysql", opts.config(opts.Database).FormatDSN())
	if err != nil {
		return nil, note.Unavailable(BackendMySQL, err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	repo := newSQLRepository(db, mysqlDialect, logger)
	repo.prepare = func(ctx context.Context) error {
		return createMySQLDatabase(ctx, opts)
	}
	return repo, nil
}

func createMySQLDatabase(ctx context.Context, opts MySQLOptions) error {
	server, err := sql.Open("mysql", opts.config("").FormatDSN())
	if err != nil {
		return err
	}
	defer server.Close()

	stmt := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", escapeIdentifier(opts.Database))
	if _, err := server.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating database %s: %w", opts.Database, err)
	}
	return nil
}

func escapeIdentifier(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '`' {
			out = append(out, '`')
		}
		out = append(out, s[i])
	}
	return string(out)
}
