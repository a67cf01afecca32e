package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries provides access to named SQL queries loaded from embedded .sql
// files. Placeholders are written as ? and rebound for the driver.
type Queries struct {
	dot *dotsql.DotSql
	db  *sqlx.DB
}

// LoadQueries parses every embedded .sql file into one named query set.
func LoadQueries(db *sqlx.DB) (*Queries, error) {
	var combined strings.Builder

	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}

		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		combined.Write(content)
		combined.WriteByte('\n')
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	return &Queries{dot: dot, db: db}, nil
}

func (q *Queries) query(name string) (string, error) {
	raw, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return q.db.Rebind(raw), nil
}

// ExecContext executes a named statement.
func (q *Queries) ExecContext(ctx context.Context, name string, args ...any) (sql.Result, error) {
	query, err := q.query(name)
	if err != nil {
		return nil, err
	}
	return q.db.ExecContext(ctx, query, args...)
}

// GetContext retrieves a single row into dest.
func (q *Queries) GetContext(ctx context.Context, name string, dest any, args ...any) error {
	query, err := q.query(name)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, query, args...)
}

// SelectContext retrieves multiple rows into the dest slice.
func (q *Queries) SelectContext(ctx context.Context, name string, dest any, args ...any) error {
	query, err := q.query(name)
	if err != nil {
		return err
	}
	return q.db.SelectContext(ctx, dest, query, args...)
}

// Tx runs named queries inside one database transaction.
type Tx struct {
	q  *Queries
	tx *sqlx.Tx
}

// InTx runs fn in a transaction, committing when it returns nil.
func (q *Queries) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Tx{q: q, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *Tx) ExecContext(ctx context.Context, name string, args ...any) (sql.Result, error) {
	query, err := t.q.query(name)
	if err != nil {
		return nil, err
	}
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) GetContext(ctx context.Context, name string, dest any, args ...any) error {
	query, err := t.q.query(name)
	if err != nil {
		return err
	}
	return t.tx.GetContext(ctx, dest, query, args...)
}
