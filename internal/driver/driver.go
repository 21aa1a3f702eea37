// Package driver defines the engine capability contract (spec.md §4.2): the
// operations every engine driver must implement, a name-keyed registry that
// mirrors the teacher's dialect.RegisterDialect/init() pattern, and the
// shared error taxonomy (spec.md §7).
package driver

import (
	"context"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/schema"
	"github.com/fluxef/dbforge/internal/value"
)

// ColumnValue pairs a column name with its decoded value, preserving the
// schema's column order within a Row.
type ColumnValue struct {
	Column string
	Value  value.Value
}

// Row is an insertion-ordered mapping from column name to universal value
// (spec.md §3, "Row and packet"). Rows are never retained past one chunk.
type Row []ColumnValue

// Get returns the value bound to name, if present.
func (r Row) Get(name string) (value.Value, bool) {
	for _, cv := range r {
		if cv.Column == name {
			return cv.Value, true
		}
	}
	return value.Value{}, false
}

// RowSeq is a lazy, finite, single-pass sequence of rows. Each call to Next
// is a suspension point (spec.md §5); callers must call Close exactly once
// when done, whether or not the sequence was exhausted.
type RowSeq interface {
	// Next advances the sequence. ok is false exactly at end-of-sequence,
	// with err nil in that case.
	Next(ctx context.Context) (row Row, ok bool, err error)
	Close() error
}

// Driver is the capability contract every engine implementation satisfies.
// There is no shared base type: MySQL and PostgreSQL conform independently,
// and a third engine would enter the system by implementing this interface
// (spec.md §9).
type Driver interface {
	// IsEmpty reports whether the connected database owns zero base tables
	// in the default namespace.
	IsEmpty(ctx context.Context) (bool, error)

	// Introspect enumerates tables, columns (with config.MapReadType
	// applied), indices (excluding the primary key), and foreign keys, and
	// populates Schema.Metadata's SourceSystem and SourceDatabaseName; the
	// remaining metadata fields (CreatedAt, ForgeVersion, ConfigFile) are set
	// by the caller.
	Introspect(ctx context.Context, cfg *config.Config) (*schema.Schema, error)

	// DiffAndApply reads the live schema, diffs it against desired, and
	// returns the ordered SQL statement list. If dryRun is false the
	// statements are executed in order against one connection. Destructive
	// statements are only emitted when destructive is true.
	DiffAndApply(ctx context.Context, desired *schema.Schema, cfg *config.Config, dryRun, destructive bool) ([]string, error)

	// Stream produces a lazy row sequence for table. When orderBy is
	// non-empty the sequence is totally ordered by those columns ascending.
	Stream(ctx context.Context, table string, orderBy []string) (RowSeq, error)

	// InsertChunk inserts rows as one multi-row INSERT, falling back to
	// per-row inserts (logged via the errLog) on batch failure.
	InsertChunk(ctx context.Context, table string, rows []Row, cfg *config.Config, dryRun, haltOnError bool, errLog RowErrorLogger) error

	// RowCount returns the exact row count for table.
	RowCount(ctx context.Context, table string) (uint64, error)

	// Close releases the driver's connection pool.
	Close() error
}

// RowErrorLogger receives per-row failures during InsertChunk's fallback
// path (spec.md §6, "Error log"). Implementations append one line per
// failed row.
type RowErrorLogger interface {
	LogRowError(table, errMsg, rowDebugRepr string) error
}
