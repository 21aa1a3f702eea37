package differ

import (
	"strings"

	"github.com/fluxef/dbforge/internal/schema"
)

// Renderer turns the engine-neutral diff into dialect-specific DDL text
// (spec.md §4.2.1). Each driver package provides one implementation; Render
// drives them through the same ordered emission every engine follows.
type Renderer interface {
	QuoteIdentifier(name string) string
	RenderCreateTable(t *schema.Table) string
	RenderDropTable(name string) string
	RenderAddColumn(table string, c *schema.Column) string
	RenderAlterColumn(table string, c *schema.Column) string
	RenderDropColumn(table, column string) string
	RenderCreateIndex(table string, idx *schema.Index) string
	RenderDropIndex(table string, indexName string) string
}

// Render walks a SchemaDiff in the order spec.md §4.2.2 describes for one
// table (ADD, MODIFY, DROP columns; then index ADD/REPLACE/DROP) and, across
// tables, CREATE before ALTER before DROP, returning the ordered SQL
// statement list.
func Render(d *SchemaDiff, r Renderer) []string {
	var stmts []string

	for _, t := range d.CreateTables {
		stmts = append(stmts, strings.TrimRight(r.RenderCreateTable(t), "\n"))
		for _, idx := range t.Indices {
			stmts = append(stmts, r.RenderCreateIndex(t.Name, idx))
		}
	}

	for _, td := range d.AlterTables {
		stmts = append(stmts, renderTableDiff(td, r)...)
	}

	for _, t := range d.DropTables {
		stmts = append(stmts, r.RenderDropTable(t.Name))
	}

	return stmts
}

func renderTableDiff(td *TableDiff, r Renderer) []string {
	var stmts []string
	name := td.Table.Name

	for _, c := range td.AddedColumns {
		stmts = append(stmts, r.RenderAddColumn(name, c))
	}
	for _, cc := range td.ModifiedColumns {
		stmts = append(stmts, r.RenderAlterColumn(name, cc.Desired))
	}
	for _, c := range td.DroppedColumns {
		stmts = append(stmts, r.RenderDropColumn(name, c.Name))
	}

	for _, idx := range td.AddedIndices {
		stmts = append(stmts, r.RenderCreateIndex(name, idx))
	}
	for _, ic := range td.ReplacedIndices {
		stmts = append(stmts, r.RenderDropIndex(name, ic.Name))
		stmts = append(stmts, r.RenderCreateIndex(name, ic.Desired))
	}
	for _, idx := range td.DroppedIndices {
		stmts = append(stmts, r.RenderDropIndex(name, idx.Name))
	}

	return stmts
}
