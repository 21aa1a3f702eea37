// Package postgres implements the PostgreSQL engine driver (spec.md §4.2).
// The teacher's own PostgreSQL support is a stub; this package is grounded on
// the teacher's MySQL driver split (connection/introspect/ddl/rows/insert)
// generalised to pg_catalog and lib/pq, following the information_schema
// field layout documented across the pack's PostgreSQL inspection tooling.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/fluxef/dbforge/internal/driver"
)

func init() {
	driver.Register(driver.PostgreSQL, Open)
}

// Driver is the PostgreSQL implementation of driver.Driver.
type Driver struct {
	db     *sql.DB
	dbName string
}

// Open connects to dsn (a postgres:// connection URL) and verifies the
// connection with a ping.
func Open(ctx context.Context, dsn string) (driver.Driver, error) {
	formatted, dbName, err := dsnFromURL(dsn)
	if err != nil {
		return nil, err
	}
	if dbName == "" {
		return nil, fmt.Errorf("postgres: connection URL must include a database name")
	}

	db, err := sql.Open("postgres", formatted)
	if err != nil {
		return nil, fmt.Errorf("postgres: open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Driver{db: db, dbName: dbName}, nil
}

// Close releases the connection pool.
func (d *Driver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// IsEmpty reports whether the connected database owns zero base tables in
// the current schema (spec.md §4.2: scoped to current_schema(), not the
// whole catalog, so that helper schemas like pg_catalog never count).
func (d *Driver) IsEmpty(ctx context.Context) (bool, error) {
	const q = `
SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`

	var n int
	if err := d.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return false, fmt.Errorf("postgres: is_empty: %w", err)
	}
	return n == 0, nil
}

// RowCount returns the exact row count for table.
func (d *Driver) RowCount(ctx context.Context, table string) (uint64, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(table))

	var n uint64
	if err := d.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: row_count %q: %w", table, err)
	}
	return n, nil
}
