package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/schema"
)

// Introspect enumerates tables, columns, indices, and foreign keys from
// information_schema, applying the configured read-side type mapping and the
// unsigned_int_to_bigint rule (spec.md §4.1, §4.2).
func (d *Driver) Introspect(ctx context.Context, cfg *config.Config) (*schema.Schema, error) {
	tableNames, err := d.listTables(ctx)
	if err != nil {
		return nil, err
	}

	s := &schema.Schema{
		Metadata: schema.Metadata{
			SourceSystem:       "mysql",
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
WHERE table_schema = ? AND table_type = 'BASE TABLE'
ORDER BY table_name`

	rows, err := d.db.QueryContext(ctx, q, d.dbName)
	if err != nil {
		return nil, fmt.Errorf("mysql: list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mysql: list tables: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (d *Driver) tableComment(ctx context.Context, table string) (string, error) {
	const q = `
SELECT table_comment FROM information_schema.tables
WHERE table_schema = ? AND table_name = ?`

	var comment string
	if err := d.db.QueryRowContext(ctx, q, d.dbName, table).Scan(&comment); err != nil {
		return "", fmt.Errorf("mysql: table comment %q: %w", table, err)
	}
	return comment, nil
}

func (d *Driver) introspectColumns(ctx context.Context, table string, cfg *config.Config) ([]*schema.Column, error) {
	const q = `
SELECT
  column_name, column_type, data_type, is_nullable, column_key,
  extra, column_default, character_maximum_length,
  numeric_precision, numeric_scale, column_comment
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`

	rows, err := d.db.QueryContext(ctx, q, d.dbName, table)
	if err != nil {
		return nil, fmt.Errorf("mysql: introspect columns %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []*schema.Column
	for rows.Next() {
		var (
			name, columnType, dataType, isNullable, columnKey, extra string
			colDefault                                                sql.NullString
			charMaxLen, numPrecision, numScale                        sql.NullInt64
			comment                                                   string
		)
		if err := rows.Scan(&name, &columnType, &dataType, &isNullable, &columnKey,
			&extra, &colDefault, &charMaxLen, &numPrecision, &numScale, &comment); err != nil {
			return nil, fmt.Errorf("mysql: introspect columns %q: %w", table, err)
		}

		c := &schema.Column{
			Name:         name,
			Nullable:     strings.EqualFold(isNullable, "YES"),
			IsPrimaryKey: columnKey == "PRI",
			IsUnsigned:   strings.Contains(strings.ToLower(columnType), "unsigned"),
			AutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
			Comment:      comment,
		}
		if colDefault.Valid {
			v := colDefault.String
			c.Default = &v
		}
		if charMaxLen.Valid {
			v := int(charMaxLen.Int64)
			c.Length = &v
		}

		irType := cfg.MapReadType("mysql", dataType)
		if irType == "enum" || irType == "set" {
			c.EnumValues = parseEnumValues(columnType)
		}
		if irType == "decimal" || irType == "numeric" {
			if numPrecision.Valid && numScale.Valid {
				p, s := int(numPrecision.Int64), int(numScale.Int64)
				c.Precision, c.Scale = &p, &s
			}
		}

		if cfg.Rules.UnsignedIntToBigint && c.IsUnsigned && isIntegerFamily(irType) {
			irType = "bigint"
			c.IsUnsigned = false
		}
		c.DataType = irType

		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func isIntegerFamily(irType string) bool {
	switch irType {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint":
		return true
	default:
		return false
	}
}

// parseEnumValues extracts the quoted literal list from a COLUMN_TYPE value
// such as "enum('a','b','c')".
func parseEnumValues(columnType string) []string {
	open := strings.IndexByte(columnType, '(')
	end := strings.LastIndexByte(columnType, ')')
	if open < 0 || end <= open {
		return nil
	}
	inner := columnType[open+1 : end]

	var values []string
	var cur strings.Builder
	inQuote := false
	runes := []rune(inner)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'' && !inQuote:
			inQuote = true
		case r == '\'' && inQuote:
			if i+1 < len(runes) && runes[i+1] == '\'' {
				cur.WriteByte('\'')
				i++
				continue
			}
			inQuote = false
		case r == ',' && !inQuote:
			values = append(values, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 || len(values) > 0 {
		values = append(values, cur.String())
	}
	return values
}

func (d *Driver) introspectIndices(ctx context.Context, table string) ([]*schema.Index, error) {
	const q = `
SELECT index_name, column_name, non_unique, index_type, sub_part
FROM information_schema.statistics
WHERE table_schema = ? AND table_name = ? AND index_name <> 'PRIMARY'
ORDER BY index_name, seq_in_index`

	rows, err := d.db.QueryContext(ctx, q, d.dbName, table)
	if err != nil {
		return nil, fmt.Errorf("mysql: introspect indices %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	type acc struct {
		idx *schema.Index
	}
	order := []string{}
	byName := map[string]*acc{}

	for rows.Next() {
		var (
			indexName, columnName, indexType string
			nonUnique                        int
			subPart                          sql.NullInt64
		)
		if err := rows.Scan(&indexName, &columnName, &nonUnique, &indexType, &subPart); err != nil {
			return nil, fmt.Errorf("mysql: introspect indices %q: %w", table, err)
		}

		a, ok := byName[indexName]
		if !ok {
			a = &acc{idx: &schema.Index{Name: indexName, Unique: nonUnique == 0, IndexType: indexType}}
			byName[indexName] = a
			order = append(order, indexName)
		}
		a.idx.Columns = append(a.idx.Columns, columnName)
		prefix := 0
		if subPart.Valid {
			prefix = int(subPart.Int64)
		}
		a.idx.ColumnPrefixes = append(a.idx.ColumnPrefixes, prefix)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []*schema.Index
	for _, name := range order {
		idx := byName[name].idx
		if !hasAnyPrefix(idx.ColumnPrefixes) {
			idx.ColumnPrefixes = nil
		}
		out = append(out, idx)
	}
	return out, nil
}

func hasAnyPrefix(prefixes []int) bool {
	for _, p := range prefixes {
		if p > 0 {
			return true
		}
	}
	return false
}

func (d *Driver) introspectForeignKeys(ctx context.Context, table string) ([]*schema.ForeignKey, error) {
	const q = `
SELECT
  k.constraint_name, k.column_name, k.referenced_table_name, k.referenced_column_name,
  r.delete_rule, r.update_rule
FROM information_schema.key_column_usage k
JOIN information_schema.referential_constraints r
  ON r.constraint_schema = k.constraint_schema AND r.constraint_name = k.constraint_name
WHERE k.table_schema = ? AND k.table_name = ? AND k.referenced_table_name IS NOT NULL
ORDER BY k.constraint_name`

	rows, err := d.db.QueryContext(ctx, q, d.dbName, table)
	if err != nil {
		return nil, fmt.Errorf("mysql: introspect foreign keys %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var fks []*schema.ForeignKey
	for rows.Next() {
		fk := &schema.ForeignKey{}
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn, &fk.OnDelete, &fk.OnUpdate); err != nil {
			return nil, fmt.Errorf("mysql: introspect foreign keys %q: %w", table, err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
