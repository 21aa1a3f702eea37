package postgres

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/schema"
)

var reFuncCall = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_]*\s*\(.*\)$`)

// quoteIdentifier double-quotes name, doubling any embedded double quote.
func quoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, `"`, `""`)
	return `"` + name + `"`
}

// quoteString single-quotes v, doubling any embedded single quote. PostgreSQL
// treats backslashes literally under standard_conforming_strings (the
// server default since 9.1), so no backslash escaping is applied here.
func quoteString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func formatLiteral(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "''"
	}
	upper := strings.ToUpper(v)
	if slices.Contains([]string{"NULL", "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "NOW()", "TRUE", "FALSE"}, upper) {
		return upper
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	if reFuncCall.MatchString(v) {
		return v
	}
	return quoteString(v)
}

// ddlRenderer implements differ.Renderer for PostgreSQL.
type ddlRenderer struct {
	cfg *config.Config
}

func (r *ddlRenderer) QuoteIdentifier(name string) string { return quoteIdentifier(name) }

func (r *ddlRenderer) RenderCreateTable(t *schema.Table) string {
	name := quoteIdentifier(t.Name)

	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+r.columnDefinition(c))
	}
	if pk := t.PrimaryKeyColumns(); len(pk) > 0 {
		lines = append(lines, "  PRIMARY KEY "+quoteColumnList(pk))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", name, strings.Join(lines, ",\n"))
}

func (r *ddlRenderer) RenderDropTable(name string) string {
	return fmt.Sprintf("DROP TABLE %s;", quoteIdentifier(name))
}

func (r *ddlRenderer) RenderAddColumn(table string, c *schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", quoteIdentifier(table), r.columnDefinition(c))
}

// RenderAlterColumn emits one ALTER TABLE statement per mutable property
// instead of MySQL's single MODIFY COLUMN, since PostgreSQL has no combined
// form (spec.md §4.2.1 leaves the exact statement shape to the dialect).
func (r *ddlRenderer) RenderAlterColumn(table string, c *schema.Column) string {
	t := quoteIdentifier(table)
	col := quoteIdentifier(c.Name)
	var stmts []string

	stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", t, col, r.nativeType(c)))
	if c.Nullable {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", t, col))
	} else {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", t, col))
	}
	if c.Default != nil {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", t, col, formatLiteral(*c.Default)))
	} else {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", t, col))
	}

	joined := make([]string, len(stmts))
	for i, s := range stmts {
		joined[i] = s + ";"
	}
	return strings.Join(joined, "\n")
}

func (r *ddlRenderer) RenderDropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", quoteIdentifier(table), quoteIdentifier(column))
}

func (r *ddlRenderer) RenderCreateIndex(table string, idx *schema.Index) string {
	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s %s;", kind, quoteIdentifier(idx.Name), quoteIdentifier(table), r.indexColumnList(idx))
}

func (r *ddlRenderer) RenderDropIndex(_ string, indexName string) string {
	return fmt.Sprintf("DROP INDEX %s;", quoteIdentifier(indexName))
}

func (r *ddlRenderer) columnDefinition(c *schema.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdentifier(c.Name))
	b.WriteByte(' ')

	if c.AutoIncrement {
		b.WriteString(r.identityType(c))
	} else {
		b.WriteString(r.nativeType(c))
	}

	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	switch {
	case c.AutoIncrement:
		// The source column's nextval(...) default is dropped; IDENTITY
		// supplies the value (spec.md §4.2.1).
	case isTextBlobJSON(c.DataType):
		// Text/blob/json columns never receive a DEFAULT clause (spec.md §4.2.1).
	case c.Default != nil:
		b.WriteString(" DEFAULT ")
		b.WriteString(formatLiteral(*c.Default))
	case c.Nullable:
		b.WriteString(" DEFAULT NULL")
	}
	return b.String()
}

// isTextBlobJSON reports whether dataType is one of the IR families that
// never receive a DEFAULT clause (spec.md §4.2.1).
func isTextBlobJSON(dataType string) bool {
	switch dataType {
	case "text", "binary", "json":
		return true
	default:
		return false
	}
}

// identityType renders GENERATED BY DEFAULT AS IDENTITY on the widened
// integer type, PostgreSQL's replacement for MySQL's AUTO_INCREMENT (spec.md
// §4.2.1, §8 scenario 2: "id integer GENERATED BY DEFAULT AS IDENTITY NOT
// NULL"). No length/precision suffix is attached.
func (r *ddlRenderer) identityType(c *schema.Column) string {
	return fmt.Sprintf("%s GENERATED BY DEFAULT AS IDENTITY", r.nativeType(c))
}

func (r *ddlRenderer) nativeType(c *schema.Column) string {
	base := r.cfg.MapWriteType("postgres", c.DataType)

	switch c.DataType {
	case "enum", "set":
		// PostgreSQL has no inline enum literal syntax comparable to MySQL's;
		// enum/set columns are written as text with a CHECK constraint left
		// for a future revision (spec.md §9 lists this as post-v1 scope).
		return "TEXT"
	case "decimal", "numeric":
		switch {
		case c.Precision != nil && c.Scale != nil:
			return fmt.Sprintf("%s(%d,%d)", base, *c.Precision, *c.Scale)
		case c.Precision != nil:
			return fmt.Sprintf("%s(%d)", base, *c.Precision)
		default:
			return base
		}
	default:
		if c.Length != nil && (base == "varchar" || base == "character varying" || base == "char" || base == "bpchar") {
			return fmt.Sprintf("%s(%d)", base, *c.Length)
		}
		return base
	}
}

func (r *ddlRenderer) indexColumnList(idx *schema.Index) string {
	parts := make([]string, len(idx.Columns))
	for i, col := range idx.Columns {
		parts[i] = quoteIdentifier(col)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func quoteColumnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdentifier(c)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
