package store

import (
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/config"
	"github.com/fyrsmithlabs/notesd/internal/note"
)

// Backend names reported by Repository.Name.
const (
	BackendMemory   = config.BackendMemory
	BackendSQLite   = config.BackendSQLite
	BackendMySQL    = config.BackendMySQL
	BackendSupabase = config.BackendSupabase
)

// Resolve decides which backend to open from the configured preference and
// the deployment context. A file backend cannot survive on a stateless
// platform, so a restricted environment downgrades sqlite to memory.
// Unknown preferences also resolve to memory.
func Resolve(cfg *config.Config) string {
	switch cfg.DB.Type {
	case BackendSQLite, "":
		if cfg.Deployment.Restricted() {
			return BackendMemory
		}
		return BackendSQLite
	case BackendMySQL, BackendSupabase, BackendMemory:
		return cfg.DB.Type
	default:
		return BackendMemory
	}
}

// Open creates the repository chosen by Resolve. It is called once at
// process start. Connections are established lazily by the first operation.
func Open(cfg *config.Config, logger *zap.Logger) (note.Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	backend := Resolve(cfg)
	if backend != cfg.DB.Type {
		logger.Warn("storage backend overridden",
			zap.String("requested", cfg.DB.Type),
			zap.String("selected", backend),
			zap.Bool("restricted_environment", cfg.Deployment.Restricted()),
		)
	}

	var (
		repo note.Repository
		err  error
	)
	switch backend {
	case BackendSQLite:
		repo, err = NewSQLite(cfg.DB.File, logger)
	case BackendMySQL:
		repo, err = NewMySQL(MySQLOptions{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password.Value(),
			Database: cfg.DB.Name,
		}, logger)
	case BackendSupabase:
		repo, err = NewSupabase(cfg.Supabase.DBURL.Value(), logger)
	default:
		repo = NewMemory(logger)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("storage backend selected", zap.String("backend", repo.Name()))
	return repo, nil
}
