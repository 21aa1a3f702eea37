package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/driver"
	"github.com/fluxef/dbforge/internal/value"
)

// InsertChunk inserts rows as a single multi-row INSERT. On batch failure it
// falls back to inserting rows one at a time, logging each failure via errLog
// unless haltOnError is set, in which case the first failing row aborts the
// whole chunk with a RowInsertError (spec.md §4.4, §6, §7 kind 7).
func (d *Driver) InsertChunk(ctx context.Context, table string, rows []driver.Row, cfg *config.Config, dryRun, haltOnError bool, errLog driver.RowErrorLogger) error {
	if dryRun || len(rows) == 0 {
		return nil
	}

	cols := columnNames(rows[0])
	if err := execBatch(ctx, d.db, table, cols, rows, cfg); err == nil {
		return nil
	}

	for _, row := range rows {
		if err := execBatch(ctx, d.db, table, cols, []driver.Row{row}, cfg); err != nil {
			if haltOnError {
				return &driver.RowInsertError{Table: table, Cause: err}
			}
			if logErr := errLog.LogRowError(table, err.Error(), rowDebugRepr(row)); logErr != nil {
				return fmt.Errorf("mysql: insert_chunk: write error log: %w", logErr)
			}
		}
	}
	return nil
}

func execBatch(ctx context.Context, db *sql.DB, table string, cols []string, rows []driver.Row, cfg *config.Config) error {
	quotedCols := make([]string, len(cols))
	for i, c := range cols {
		quotedCols[i] = quoteIdentifier(c)
	}

	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(cols))
	for ri, row := range rows {
		ph := make([]string, len(cols))
		for ci, col := range cols {
			v, _ := row.Get(col)
			ph[ci] = "?"
			args = append(args, bindArg(v, cfg))
		}
		placeholders[ri] = "(" + strings.Join(ph, ", ") + ")"
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdentifier(table), strings.Join(quotedCols, ", "), strings.Join(placeholders, ", "))

	_, err := db.ExecContext(ctx, stmt, args...)
	return err
}

// bindArg converts a value.Value into the Go type the mysql driver binds
// natively. ZeroDateTime binds the literal zero-date string only when the
// zero_date rule is enabled; otherwise it binds NULL (spec.md §4.4).
func bindArg(v value.Value, cfg *config.Config) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindZeroDateTime:
		if cfg.Rules.ZeroDate {
			return zeroDatePrefix + " 00:00:00"
		}
		return nil
	case value.KindInteger, value.KindYear:
		n, _ := v.AsInteger()
		return n
	case value.KindUnsignedInteger:
		n, _ := v.AsUnsignedInteger()
		return n
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	case value.KindBoolean:
		b, _ := v.AsBoolean()
		if b {
			return int64(1)
		}
		return int64(0)
	case value.KindBinary:
		b, _ := v.AsBinary()
		return b
	case value.KindTime:
		t, _ := v.AsTime()
		return t.Format(mysqlTimeLayout)
	case value.KindDate:
		t, _ := v.AsTime()
		return t.Format(mysqlDateLayout)
	case value.KindDateTime:
		t, _ := v.AsTime()
		return t.Format(mysqlDateTimeLayout)
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
