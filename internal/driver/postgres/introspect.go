package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/schema"
)

// Introspect enumerates tables, columns, indices, and foreign keys from
// information_schema and pg_catalog, applying the configured read-side type
// mapping (spec.md §4.1, §4.2). Everything is scoped to current_schema() so
// a connection against a non-default search_path only sees its own tables.
func (d *Driver) Introspect(ctx context.Context, cfg *config.Config) (*schema.Schema, error) {
	tableNames, err := d.listTables(ctx)
	if err != nil {
		return nil, err
	}

	s := &schema.Schema{
		Metadata: schema.Metadata{
			SourceSystem:       "postgresql",
			SourceDatabaseName: d.dbName,
		},
		Tables: []*schema.Table{},
	}

	for _, name := range tableNames {
		t := &schema.Table{Name: name}

		t.Columns, err = d.introspectColumns(ctx, name, cfg)
		if err != nil {
			return nil, err
		}
		t.Indices, err = d.introspectIndices(ctx, name)
		if err != nil {
			return nil, err
		}
		t.ForeignKeys, err = d.introspectForeignKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		t.Comment, err = d.tableComment(ctx, name)
		if err != nil {
			return nil, err
		}

		s.Tables = append(s.Tables, t)
	}

	return s, nil
}

func (d *Driver) listTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`

	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: list tables: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (d *Driver) tableComment(ctx context.Context, table string) (string, error) {
	const q = `
SELECT COALESCE(obj_description(c.oid), '')
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = current_schema() AND c.relname = $1`

	var comment string
	if err := d.db.QueryRowContext(ctx, q, table).Scan(&comment); err != nil {
		return "", fmt.Errorf("postgres: table comment %q: %w", table, err)
	}
	return comment, nil
}

func (d *Driver) introspectColumns(ctx context.Context, table string, cfg *config.Config) ([]*schema.Column, error) {
	const q = `
SELECT
  c.column_name, c.data_type, c.udt_name, c.is_nullable, c.column_default,
  c.character_maximum_length, c.numeric_precision, c.numeric_scale,
  c.is_identity,
  EXISTS (
    SELECT 1 FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
    WHERE tc.constraint_type = 'PRIMARY KEY'
      AND tc.table_schema = current_schema() AND tc.table_name = c.table_name
      AND kcu.column_name = c.column_name
  ) AS is_primary_key
FROM information_schema.columns c
WHERE c.table_schema = current_schema() AND c.table_name = $1
ORDER BY c.ordinal_position`

	rows, err := d.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("postgres: introspect columns %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []*schema.Column
	for rows.Next() {
		var (
			name, dataType, udtName, isNullable, isIdentity string
			colDefault                                      sql.NullString
			charMaxLen, numPrecision, numScale               sql.NullInt64
			isPrimaryKey                                     bool
		)
		if err := rows.Scan(&name, &dataType, &udtName, &isNullable, &colDefault,
			&charMaxLen, &numPrecision, &numScale, &isIdentity, &isPrimaryKey); err != nil {
			return nil, fmt.Errorf("postgres: introspect columns %q: %w", table, err)
		}

		nativeType := dataType
		if dataType == "ARRAY" {
			nativeType = strings.TrimPrefix(udtName, "_") + "[]"
		} else if dataType == "USER-DEFINED" {
			nativeType = udtName
		}

		c := &schema.Column{
			Name:         name,
			Nullable:     strings.EqualFold(isNullable, "YES"),
			IsPrimaryKey: isPrimaryKey,
			AutoIncrement: strings.EqualFold(isIdentity, "YES") || (colDefault.Valid && strings.HasPrefix(colDefault.String, "nextval(")),
		}
		if colDefault.Valid && !c.AutoIncrement {
			v := colDefault.String
			c.Default = &v
		}
		if charMaxLen.Valid {
			v := int(charMaxLen.Int64)
			c.Length = &v
		}

		irType := cfg.MapReadType("postgres", nativeType)
		if irType == "decimal" || irType == "numeric" {
			if numPrecision.Valid && numScale.Valid {
				p, s := int(numPrecision.Int64), int(numScale.Int64)
				c.Precision, c.Scale = &p, &s
			}
		}
		c.DataType = irType

		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (d *Driver) introspectIndices(ctx context.Context, table string) ([]*schema.Index, error) {
	const q = `
SELECT
  ic.relname AS index_name, a.attname AS column_name,
  ix.indisunique, am.amname AS index_type, array_position(ix.indkey, a.attnum) AS ord
FROM pg_index ix
JOIN pg_class ic ON ic.oid = ix.indexrelid
JOIN pg_class tc ON tc.oid = ix.indrelid
JOIN pg_namespace n ON n.oid = tc.relnamespace
JOIN pg_am am ON am.oid = ic.relam
JOIN pg_attribute a ON a.attrelid = tc.oid AND a.attnum = ANY(ix.indkey)
WHERE n.nspname = current_schema() AND tc.relname = $1 AND NOT ix.indisprimary
ORDER BY ic.relname, ord`

	rows, err := d.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("postgres: introspect indices %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	order := []string{}
	byName := map[string]*schema.Index{}
	for rows.Next() {
		var (
			indexName, columnName, indexType string
			unique                            bool
			ord                               int
		)
		if err := rows.Scan(&indexName, &columnName, &unique, &indexType, &ord); err != nil {
			return nil, fmt.Errorf("postgres: introspect indices %q: %w", table, err)
		}
		idx, ok := byName[indexName]
		if !ok {
			idx = &schema.Index{Name: indexName, Unique: unique, IndexType: indexType}
			byName[indexName] = idx
			order = append(order, indexName)
		}
		idx.Columns = append(idx.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []*schema.Index
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out, nil
}

func (d *Driver) introspectForeignKeys(ctx context.Context, table string) ([]*schema.ForeignKey, error) {
	const q = `
SELECT
  tc.constraint_name, kcu.column_name, ccu.table_name AS referenced_table,
  ccu.column_name AS referenced_column, rc.delete_rule, rc.update_rule
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
JOIN information_schema.referential_constraints rc
  ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() AND tc.table_name = $1
ORDER BY tc.constraint_name`

	rows, err := d.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("postgres: introspect foreign keys %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var fks []*schema.ForeignKey
	for rows.Next() {
		fk := &schema.ForeignKey{}
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn, &fk.OnDelete, &fk.OnUpdate); err != nil {
			return nil, fmt.Errorf("postgres: introspect foreign keys %q: %w", table, err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
