package postgres

import (
	"context"
	"fmt"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/differ"
	"github.com/fluxef/dbforge/internal/schema"
)

// DiffAndApply reads the live schema, diffs it against desired, and
// optionally executes the resulting statements in order on one connection.
func (d *Driver) DiffAndApply(ctx context.Context, desired *schema.Schema, cfg *config.Config, dryRun, destructive bool) ([]string, error) {
	actual, err := d.Introspect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: diff_and_apply: introspect current schema: %w", err)
	}

	diff := differ.Diff(desired, actual, destructive)
	stmts := differ.Render(diff, &ddlRenderer{cfg: cfg})

	if dryRun || len(stmts) == 0 {
		return stmts, nil
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: diff_and_apply: acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("postgres: diff_and_apply: exec %q: %w", stmt, err)
		}
	}

	return stmts, nil
}
