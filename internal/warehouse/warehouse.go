// Package warehouse bulk-loads extracts into the analytical data store.
// Staging tables are one per logical group; the column set and order match
// the written extract exactly.
package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pool is the subset of pgxpool.Pool the loader uses, narrowed for mocking.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// Loader appends extract rows to per-group staging tables.
type Loader struct {
	pool       Pool
	schemaName string
}

// New connects a Loader to the warehouse.
func New(ctx context.Context, dsn, schemaName string) (*Loader, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "warehouse: ping")
	}
	return &Loader{pool: pool, schemaName: schemaName}, nil
}

// NewWithPool wires a Loader onto an existing pool. Used by tests.
func NewWithPool(pool Pool, schemaName string) *Loader {
	return &Loader{pool: pool, schemaName: schemaName}
}

// Close releases the connection pool.
func (l *Loader) Close() {
	l.pool.Close()
}

// Load appends rows to the group's staging table, creating schema and table
// on first use. Row cells arrive pre-rendered; staging columns are TEXT and
// typing is applied downstream in the warehouse.
func (l *Loader) Load(ctx context.Context, group string, cols []string, rows [][]any) (int64, error) {
	if err := l.ensureTable(ctx, group, cols); err != nil {
		return 0, err
	}

	table := pgx.Identifier{l.schemaName, group}
	n, err := l.pool.CopyFrom(ctx, table, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "warehouse: copy into %s.%s", l.schemaName, group)
	}

	zap.L().Info("warehouse load complete",
		zap.String("table", l.schemaName+"."+group),
		zap.Int64("rows", n),
	)
	return n, nil
}

func (l *Loader) ensureTable(ctx context.Context, group string, cols []string) error {
	if _, err := l.pool.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, quoteIdent(l.schemaName))); err != nil {
		return eris.Wrapf(err, "warehouse: ensure schema %s", l.schemaName)
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (%s)`,
		quoteIdent(l.schemaName), quoteIdent(group), strings.Join(defs, ", "))
	if _, err := l.pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "warehouse: ensure table %s.%s", l.schemaName, group)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
