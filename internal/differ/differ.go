// Package differ implements the engine-neutral schema comparison algorithm
// of spec.md §4.2.2: given a desired and an actual schema.Schema, produce an
// ordered set of structural changes. It knows nothing about SQL syntax —
// rendering those changes into DDL is the job of each driver's Renderer
// (spec.md §4.2.1), following the teacher's separation between
// internal/diff (engine-neutral) and internal/dialect/mysql (rendering).
package differ

import (
	"strconv"
	"strings"

	"github.com/fluxef/dbforge/internal/schema"
)

// SchemaDiff is the table-level three-way comparison result.
type SchemaDiff struct {
	CreateTables []*schema.Table
	DropTables   []*schema.Table // populated only when destructive
	AlterTables  []*TableDiff
}

// TableDiff is the column/index-level three-way comparison result for one
// table present on both sides.
type TableDiff struct {
	Table *schema.Table // desired definition

	AddedColumns    []*schema.Column
	ModifiedColumns []*ColumnChange
	DroppedColumns  []*schema.Column // populated only when destructive

	AddedIndices    []*schema.Index
	ReplacedIndices []*IndexChange // same name, non-equivalent definition
	DroppedIndices  []*schema.Index // populated only when destructive
}

// ColumnChange pairs a desired and actual column with the same name whose
// definitions materially differ.
type ColumnChange struct {
	Name    string
	Desired *schema.Column
	Actual  *schema.Column
}

// IndexChange pairs a desired and actual index with the same name whose
// definitions are not equivalent.
type IndexChange struct {
	Name    string
	Desired *schema.Index
	Actual  *schema.Index
}

// IsEmpty reports whether the diff contains no changes at all.
func (d *SchemaDiff) IsEmpty() bool {
	return len(d.CreateTables) == 0 && len(d.DropTables) == 0 && len(d.AlterTables) == 0
}

// Diff compares desired against actual and returns the ordered structural
// diff. destructive gates DROP TABLE/COLUMN/INDEX emission exactly as
// spec.md §4.2.2 describes; non-destructive drops are simply omitted rather
// than causing an error (idempotence is preserved: re-running Diff with the
// same destructive flag against the already-migrated target yields an empty
// diff — spec.md §8).
func Diff(desired, actual *schema.Schema, destructive bool) *SchemaDiff {
	d := &SchemaDiff{}

	actualByName := tablesByName(actual)
	seen := make(map[string]bool, len(desired.Tables))

	for _, dt := range desired.Tables {
		seen[dt.Name] = true
		at, ok := actualByName[dt.Name]
		if !ok {
			d.CreateTables = append(d.CreateTables, dt)
			continue
		}
		if td := diffTable(dt, at, destructive); td != nil {
			d.AlterTables = append(d.AlterTables, td)
		}
	}

	if destructive {
		for _, at := range actual.Tables {
			if !seen[at.Name] {
				d.DropTables = append(d.DropTables, at)
			}
		}
	}

	return d
}

func tablesByName(s *schema.Schema) map[string]*schema.Table {
	m := make(map[string]*schema.Table, len(s.Tables))
	for _, t := range s.Tables {
		m[t.Name] = t
	}
	return m
}

func diffTable(desired, actual *schema.Table, destructive bool) *TableDiff {
	td := &TableDiff{Table: desired}

	actualCols := columnsByName(actual)
	seenCol := make(map[string]bool, len(desired.Columns))

	for _, dc := range desired.Columns {
		seenCol[dc.Name] = true
		ac, ok := actualCols[dc.Name]
		if !ok {
			td.AddedColumns = append(td.AddedColumns, dc)
			continue
		}
		if columnsDiffer(dc, ac) {
			td.ModifiedColumns = append(td.ModifiedColumns, &ColumnChange{Name: dc.Name, Desired: dc, Actual: ac})
		}
	}

	if destructive {
		for _, ac := range actual.Columns {
			if !seenCol[ac.Name] {
				td.DroppedColumns = append(td.DroppedColumns, ac)
			}
		}
	}

	desiredIdx := indicesByName(desired)
	actualIdx := indicesByName(actual)
	seenIdx := make(map[string]bool, len(desired.Indices))

	for _, di := range desired.Indices {
		seenIdx[di.Name] = true
		ai, ok := actualIdx[di.Name]
		if !ok {
			td.AddedIndices = append(td.AddedIndices, di)
			continue
		}
		if !indicesEquivalent(di, ai) {
			td.ReplacedIndices = append(td.ReplacedIndices, &IndexChange{Name: di.Name, Desired: di, Actual: ai})
		}
	}

	if destructive {
		for _, ai := range actual.Indices {
			if !seenIdx[ai.Name] {
				td.DroppedIndices = append(td.DroppedIndices, ai)
			}
		}
	}

	if len(td.AddedColumns) == 0 && len(td.ModifiedColumns) == 0 && len(td.DroppedColumns) == 0 &&
		len(td.AddedIndices) == 0 && len(td.ReplacedIndices) == 0 && len(td.DroppedIndices) == 0 {
		return nil
	}
	return td
}

func columnsByName(t *schema.Table) map[string]*schema.Column {
	m := make(map[string]*schema.Column, len(t.Columns))
	for _, c := range t.Columns {
		m[c.Name] = c
	}
	return m
}

func indicesByName(t *schema.Table) map[string]*schema.Index {
	m := make(map[string]*schema.Index, len(t.Indices))
	for _, idx := range t.Indices {
		m[idx.Name] = idx
	}
	return m
}

// columnsDiffer implements "material difference" from spec.md §4.2.2: data
// type, length, nullability, default (float-aware), auto-increment, or
// on-update differ.
func columnsDiffer(desired, actual *schema.Column) bool {
	if desired.DataType != actual.DataType {
		return true
	}
	if !intPtrEqual(desired.Length, actual.Length) {
		return true
	}
	if desired.Nullable != actual.Nullable {
		return true
	}
	if !defaultsEqual(desired, actual) {
		return true
	}
	if desired.AutoIncrement != actual.AutoIncrement {
		return true
	}
	if !strPtrEqual(desired.OnUpdate, actual.OnUpdate) {
		return true
	}
	return false
}

func defaultsEqual(desired, actual *schema.Column) bool {
	if desired.DataType == "float" {
		df, dok := parseFloatPtr(desired.Default)
		af, aok := parseFloatPtr(actual.Default)
		if dok && aok {
			return df == af
		}
	}
	return strPtrEqual(desired.Default, actual.Default)
}

func parseFloatPtr(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// indicesEquivalent implements the "equivalent indices" rule: same
// uniqueness, columns, column-prefixes, and case-insensitive index-type are
// left untouched (spec.md §4.2).
func indicesEquivalent(a, b *schema.Index) bool {
	if a.Unique != b.Unique {
		return false
	}
	if !strings.EqualFold(a.IndexType, b.IndexType) {
		return false
	}
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	return intSliceEqual(a.ColumnPrefixes, b.ColumnPrefixes)
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
