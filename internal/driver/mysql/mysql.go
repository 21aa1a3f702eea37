// Package mysql implements the MySQL engine driver (spec.md §4.2): schema
// introspection, DDL generation via internal/differ, row streaming/decoding,
// and chunked insert. It mirrors the teacher's internal/dialect/mysql
// package split (a Dialect/Generator pair) but drives from a live
// database/sql connection instead of a parsed SQL dump.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/fluxef/dbforge/internal/driver"
)

func init() {
	driver.Register(driver.MySQL, Open)
}

// Driver is the MySQL implementation of driver.Driver.
type Driver struct {
	db     *sql.DB
	dbName string
}

// Open connects to dsn (a mysql:// connection URL) and verifies the
// connection with a ping.
func Open(ctx context.Context, dsn string) (driver.Driver, error) {
	formatted, dbName, err := dsnFromURL(dsn)
	if err != nil {
		return nil, err
	}
	if dbName == "" {
		return nil, fmt.Errorf("mysql: connection URL must include a database name")
	}

	db, err := sql.Open("mysql", formatted)
	if err != nil {
		return nil, fmt.Errorf("mysql: open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
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

// IsEmpty reports whether the connected database owns zero base tables.
func (d *Driver) IsEmpty(ctx context.Context) (bool, error) {
	const q = `
SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = ? AND table_type = 'BASE TABLE'`

	var n int
	if err := d.db.QueryRowContext(ctx, q, d.dbName).Scan(&n); err != nil {
		return false, fmt.Errorf("mysql: is_empty: %w", err)
	}
	return n == 0, nil
}

// RowCount returns the exact row count for table (spec.md §4.2: "Exact
// count (authoritative for progress and verification)").
func (d *Driver) RowCount(ctx context.Context, table string) (uint64, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(table))

	var n uint64
	if err := d.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("mysql: row_count %q: %w", table, err)
	}
	return n, nil
}
