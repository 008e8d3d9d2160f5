// Package sqlitex adapts modernc.org/sqlite (a pure-Go, CGo-free SQLite
// driver) connections to the poolx.Manager contract, via the standard
// database/sql Conn type. It is the Go-native stand-in for spec.md's
// deadpool-sqlite adapter.
//
// database/sql already keeps its own connection pool; this adapter exists
// to run every checkout through poolx's recycle pipeline instead — a
// pool-wide pre_recycle/post_recycle hook (for example, metrics or audit
// logging) that database/sql's own pool has no hook point for.
package sqlitex

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cloudkite/poolx"
)

// Open opens a modernc.org/sqlite-backed database/sql.DB at path (use
// ":memory:" for an in-process database).
func Open(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

// ConnManager pools *sql.Conn values pulled from a database/sql.DB.
type ConnManager struct {
	db *sql.DB
}

// NewConnManager returns a Manager that pulls connections from db. The
// caller owns db's lifetime.
func NewConnManager(db *sql.DB) *ConnManager {
	return &ConnManager{db: db}
}

func (m *ConnManager) Create(ctx context.Context) (*sql.Conn, error) {
	return m.db.Conn(ctx)
}

// Recycle runs a cheap PRAGMA quick_check as its validation step: a
// connection whose underlying database file has gone missing or become
// corrupt fails here instead of surfacing mid-query to a caller.
func (m *ConnManager) Recycle(ctx context.Context, conn **sql.Conn, metrics *poolx.Metrics) error {
	var result string
	if err := (*conn).QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("sqlitex: quick_check reported %q", result)
	}
	return nil
}

func (m *ConnManager) Detach(conn **sql.Conn) {
	_ = (*conn).Close()
}
