package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/driver"
	"github.com/fluxef/dbforge/internal/value"
)

// InsertChunk inserts rows as a single multi-row INSERT, falling back to one
// row at a time on batch failure (spec.md §4.4, §6, §7 kind 7).
func (d *Driver) InsertChunk(ctx context.Context, table string, rows []driver.Row, cfg *config.Config, dryRun, haltOnError bool, errLog driver.RowErrorLogger) error {
	if dryRun || len(rows) == 0 {
		return nil
	}

	cols := columnNames(rows[0])
	if err := execBatch(ctx, d.db, table, cols, rows, cfg, false); err == nil {
		return nil
	}

	for _, row := range rows {
		if err := execBatch(ctx, d.db, table, cols, []driver.Row{row}, cfg, true); err != nil {
			if haltOnError {
				return &driver.RowInsertError{Table: table, Cause: err}
			}
			if logErr := errLog.LogRowError(table, err.Error(), rowDebugRepr(row)); logErr != nil {
				return fmt.Errorf("postgres: insert_chunk: write error log: %w", logErr)
			}
		}
	}
	return nil
}

// execBatch runs one multi-row INSERT. castJSON binds JSON-kind values with
// an explicit ::jsonb cast, required in the single-row fallback path (spec.md
// §4.2: "PostgreSQL JSON values must be bound with explicit jsonb casts in
// the single-row fallback path") since a bare $N placeholder leaves lib/pq's
// inferred parameter type ambiguous once the surrounding batch context is
// gone.
func execBatch(ctx context.Context, db *sql.DB, table string, cols []string, rows []driver.Row, cfg *config.Config, castJSON bool) error {
	quotedCols := make([]string, len(cols))
	for i, c := range cols {
		quotedCols[i] = quoteIdentifier(c)
	}

	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(cols))
	n := 1
	for ri, row := range rows {
		ph := make([]string, len(cols))
		for ci, col := range cols {
			v, _ := row.Get(col)
			placeholder := fmt.Sprintf("$%d", n)
			n++
			if castJSON && v.Kind() == value.KindJSON {
				placeholder += "::jsonb"
			}
			ph[ci] = placeholder
			args = append(args, bindArg(v, cfg))
		}
		placeholders[ri] = "(" + strings.Join(ph, ", ") + ")"
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdentifier(table), strings.Join(quotedCols, ", "), strings.Join(placeholders, ", "))

	_, err := db.ExecContext(ctx, stmt, args...)
	return err
}

// bindArg converts a value.Value into the Go type the lib/pq driver binds
// natively. ZeroDateTime never round-trips back into PostgreSQL - the
// Null/ZeroDateTime bridge in value.Equal lets a MySQL-origin ZeroDateTime
// match the NULL stored here - so it always binds NULL regardless of the
// zero_date rule.
func bindArg(v value.Value, cfg *config.Config) any {
	switch v.Kind() {
	case value.KindNull, value.KindZeroDateTime:
		return nil
	case value.KindInteger, value.KindYear:
		n, _ := v.AsInteger()
		return n
	case value.KindUnsignedInteger:
		n, _ := v.AsUnsignedInteger()
		return int64(n)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	case value.KindBoolean:
		b, _ := v.AsBoolean()
		return b
	case value.KindBinary:
		b, _ := v.AsBinary()
		return b
	case value.KindTime:
		t, _ := v.AsTime()
		return t.Format(pgTimeLayout)
	case value.KindDate:
		t, _ := v.AsTime()
		return t.Format(pgDateLayout)
	case value.KindDateTime:
		t, _ := v.AsTime()
		return t.Format(pgTimestampTZ)
	case value.KindDecimal:
		s, _ := v.AsDecimal()
		return s
	case value.KindJSON:
		s, _ := v.AsJSON()
		return s
	case value.KindUUID:
		s, _ := v.AsUUID()
		return s
	case value.KindIPNetwork:
		s, _ := v.AsIPNetwork()
		return s
	default:
		return v.String()
	}
}

func columnNames(row driver.Row) []string {
	names := make([]string, len(row))
	for i, cv := range row {
		names[i] = cv.Column
	}
	return names
}

func rowDebugRepr(row driver.Row) string {
	parts := make([]string, len(row))
	for i, cv := range row {
		parts[i] = fmt.Sprintf("%s=%s", cv.Column, cv.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
