// Package store implements note.Repository over four backends and the
// selector that picks exactly one of them at startup.
//
// Backends:
//   - memory: process-local map, used for tests and restricted environments
//   - sqlite: embedded file via modernc.org/sqlite
//   - mysql: networked relational server via go-sql-driver/mysql
//   - supabase: managed Postgres via gorm
//
// Schema creation is lazy. The first operation against a SQL backend runs
// an idempotent ensure step guarded by an initialized flag; a failed
// attempt leaves the flag unset so the next operation retries.
package store
