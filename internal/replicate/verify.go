package replicate

import (
	"context"
	"fmt"

	"github.com/fluxef/dbforge/internal/driver"
	"github.com/fluxef/dbforge/internal/schema"
	"github.com/fluxef/dbforge/internal/value"
)

// MismatchError reports a failed verification for one table: either a row
// count mismatch or the first row pair whose values differ under the
// cross-engine equality predicate. Verification has no row-level tolerance
// (spec.md §4.4.1): any mismatch aborts replication for the whole run.
type MismatchError struct {
	Table  string
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verification failed for table %q: %s", e.Table, e.Reason)
}

// Verify opens ordered row streams on both sides and advances them in
// lock-step, comparing every column with value.Equal (spec.md §4.4.1).
// order_by is the table's primary key columns, or every column when the
// table has none.
func Verify(ctx context.Context, source, target driver.Driver, table *schema.Table) error {
	orderBy := table.PrimaryKeyColumns()
	if len(orderBy) == 0 {
		orderBy = table.ColumnNames()
	}

	srcSeq, err := source.Stream(ctx, table.Name, orderBy)
	if err != nil {
		return fmt.Errorf("replicate: verify: open source stream for %q: %w", table.Name, err)
	}
	defer func() { _ = srcSeq.Close() }()

	tgtSeq, err := target.Stream(ctx, table.Name, orderBy)
	if err != nil {
		return fmt.Errorf("replicate: verify: open target stream for %q: %w", table.Name, err)
	}
	defer func() { _ = tgtSeq.Close() }()

	for {
		srcRow, srcOk, err := srcSeq.Next(ctx)
		if err != nil {
			return fmt.Errorf("replicate: verify: read source row for %q: %w", table.Name, err)
		}
		tgtRow, tgtOk, err := tgtSeq.Next(ctx)
		if err != nil {
			return fmt.Errorf("replicate: verify: read target row for %q: %w", table.Name, err)
		}

		if srcOk != tgtOk {
			return &MismatchError{Table: table.Name, Reason: "row count mismatch between source and target"}
		}
		if !srcOk {
			return nil
		}

		if reason := firstColumnMismatch(srcRow, tgtRow); reason != "" {
			return &MismatchError{Table: table.Name, Reason: reason}
		}
	}
}

func firstColumnMismatch(src, tgt driver.Row) string {
	if len(src) != len(tgt) {
		return fmt.Sprintf("column count mismatch: source has %d, target has %d", len(src), len(tgt))
	}
	for _, cv := range src {
		tv, ok := tgt.Get(cv.Column)
		if !ok {
			return fmt.Sprintf("column %q missing from target row", cv.Column)
		}
		if !value.Equal(cv.Value, tv) {
			return fmt.Sprintf("column %q: source=%s target=%s", cv.Column, cv.Value.String(), tv.String())
		}
	}
	return ""
}
