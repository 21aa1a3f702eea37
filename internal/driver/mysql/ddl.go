package mysql

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/fluxef/dbforge/internal/config"
	"github.com/fluxef/dbforge/internal/schema"
)

// reFuncCall matches SQL function-call default expressions like NOW() so
// they are emitted bare instead of quoted as a string literal.
var reFuncCall = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_]*\s*\(.*\)$`)

// quoteIdentifier backtick-quotes name, doubling any embedded backtick, the
// same escaping the teacher's MySQL generator uses.
func quoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// quoteString single-quotes v with MySQL's backslash-escape rules.
func quoteString(v string) string {
	var b strings.Builder
	b.Grow(len(v) + len(v)/10 + 2)
	b.WriteByte('\'')
	for _, r := range v {
		switch r {
		case '\'':
			b.WriteString("''")
		case '\\':
			b.WriteString(`\\`)
		case '\x00':
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1A':
			b.WriteString(`\Z`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// formatLiteral renders a default-value literal: SQL keywords and function
// calls pass through bare, numbers pass through bare, everything else is
// quoted as a string.
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

// ddlRenderer implements differ.Renderer for MySQL. It is constructed fresh
// for each DiffAndApply call so it can carry the resolved config without
// widening the Renderer interface itself.
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

	stmt := fmt.Sprintf("CREATE TABLE %s (\n%s\n)", name, strings.Join(lines, ",\n"))
	if t.Comment != "" {
		stmt += fmt.Sprintf(" COMMENT=%s", quoteString(t.Comment))
	}
	return stmt + ";"
}

func (r *ddlRenderer) RenderDropTable(name string) string {
	return fmt.Sprintf("DROP TABLE %s;", quoteIdentifier(name))
}

func (r *ddlRenderer) RenderAddColumn(table string, c *schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", quoteIdentifier(table), r.columnDefinition(c))
}

func (r *ddlRenderer) RenderAlterColumn(table string, c *schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", quoteIdentifier(table), r.columnDefinition(c))
}

func (r *ddlRenderer) RenderDropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", quoteIdentifier(table), quoteIdentifier(column))
}

func (r *ddlRenderer) RenderCreateIndex(table string, idx *schema.Index) string {
	kind := "INDEX"
	switch strings.ToUpper(idx.IndexType) {
	case "FULLTEXT":
		kind = "FULLTEXT INDEX"
	case "SPATIAL":
		kind = "SPATIAL INDEX"
	default:
		if idx.Unique {
			kind = "UNIQUE INDEX"
		}
	}
	return fmt.Sprintf("CREATE %s %s ON %s %s;", kind, quoteIdentifier(idx.Name), quoteIdentifier(table), r.indexColumnList(idx))
}

func (r *ddlRenderer) RenderDropIndex(table string, indexName string) string {
	return fmt.Sprintf("DROP INDEX %s ON %s;", quoteIdentifier(indexName), quoteIdentifier(table))
}

// columnDefinition renders one column's DDL fragment per spec.md §4.2.1:
// mapped type, length/precision/scale or enum literal suffix, unsigned,
// nullability, auto_increment, default, on_update, comment - in that order.
func (r *ddlRenderer) columnDefinition(c *schema.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdentifier(c.Name))
	b.WriteByte(' ')
	b.WriteString(r.nativeType(c))

	if c.IsUnsigned {
		b.WriteString(" UNSIGNED")
	}
	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if c.AutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	switch {
	case isTextBlobJSON(c.DataType):
		// Text/blob/json columns never receive a DEFAULT clause (spec.md §4.2.1).
	case c.Default != nil:
		b.WriteString(" DEFAULT ")
		b.WriteString(formatLiteral(*c.Default))
	case c.Nullable:
		b.WriteString(" DEFAULT NULL")
	}
	if c.OnUpdate != nil {
		b.WriteString(" ON UPDATE ")
		b.WriteString(formatLiteral(*c.OnUpdate))
	}
	if c.Comment != "" {
		b.WriteString(" COMMENT ")
		b.WriteString(quoteString(c.Comment))
	}
	return b.String()
}

func (r *ddlRenderer) nativeType(c *schema.Column) string {
	base := r.cfg.MapWriteType("mysql", c.DataType)

	switch c.DataType {
	case "enum", "set":
		quoted := make([]string, len(c.EnumValues))
		for i, v := range c.EnumValues {
			quoted[i] = quoteString(v)
		}
		return fmt.Sprintf("%s(%s)", base, strings.Join(quoted, ", "))
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
		if c.Length != nil {
			return fmt.Sprintf("%s(%d)", base, *c.Length)
		}
		return base
	}
}

func (r *ddlRenderer) indexColumnList(idx *schema.Index) string {
	parts := make([]string, len(idx.Columns))
	for i, col := range idx.Columns {
		q := quoteIdentifier(col)
		if idx.ColumnPrefixes != nil && i < len(idx.ColumnPrefixes) && idx.ColumnPrefixes[i] > 0 {
			q = fmt.Sprintf("%s(%d)", q, idx.ColumnPrefixes[i])
		}
		parts[i] = q
	}
	return "(" + strings.Join(parts, ", ") + ")"
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

func quoteColumnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdentifier(c)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
