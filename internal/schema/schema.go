// Package schema defines the engine-neutral schema intermediate
// representation (IR). A Schema is produced by introspecting a live
// database or by deserialising a JSON snapshot written by a previous
// extract; it is immutable thereafter except that the dependency sorter
// replaces Tables with its reordering (see internal/sorter).
package schema

import (
	"encoding/json"
	"fmt"
)

// Metadata carries provenance about how a Schema was produced.
type Metadata struct {
	SourceSystem       string `json:"source_system"`
	SourceDatabaseName string `json:"source_database_name"`
	CreatedAt          string `json:"created_at"`
	ForgeVersion       string `json:"forge_version"`
	ConfigFile         string `json:"config_file"`
}

// Schema is the top-level IR: metadata plus an ordered list of tables.
// Table order is semantically significant once the sorter has run: it is
// the order in which CREATE TABLE and insert_chunk are applied.
type Schema struct {
	Metadata Metadata `json:"metadata"`
	Tables   []*Table `json:"tables"`
}

// Table carries a name, an ordered list of columns (order is the positional
// INSERT layout), a list of indices (excluding the primary key, which is
// inferred from column flags), a list of foreign keys, and an optional
// comment.
type Table struct {
	Name        string        `json:"name"`
	Columns     []*Column     `json:"columns"`
	Indices     []*Index      `json:"indices"`
	ForeignKeys []*ForeignKey `json:"foreign_keys"`
	Comment     string        `json:"comment,omitempty"`
}

// Column describes one column. Precision/Scale are meaningful only for
// decimal-family data types; Length is meaningful only for character/bit/
// time-with-fraction types; IsUnsigned is meaningful only for integer
// families (and is cleared when the unsigned_int_to_bigint rule fires on
// read); EnumValues is non-empty exactly when DataType is "enum" or "set".
type Column struct {
	Name          string   `json:"name"`
	DataType      string   `json:"data_type"`
	Length        *int     `json:"length,omitempty"`
	Precision     *int     `json:"precision,omitempty"`
	Scale         *int     `json:"scale,omitempty"`
	Nullable      bool     `json:"nullable"`
	IsPrimaryKey  bool     `json:"is_primary_key"`
	IsUnsigned    bool     `json:"is_unsigned"`
	AutoIncrement bool     `json:"auto_increment"`
	Default       *string  `json:"default,omitempty"`
	Comment       string   `json:"comment,omitempty"`
	OnUpdate      *string  `json:"on_update,omitempty"`
	EnumValues    []string `json:"enum_values,omitempty"`
}

// Index describes a secondary (non-primary-key) index. When ColumnPrefixes
// is present its length must equal len(Columns) (MySQL prefix indices use 0
// for positions with no prefix).
type Index struct {
	Name           string   `json:"name"`
	Columns        []string `json:"columns"`
	Unique         bool     `json:"unique"`
	IndexType      string   `json:"index_type,omitempty"`
	ColumnPrefixes []int    `json:"column_prefixes,omitempty"`
}

// ForeignKey describes a single-column foreign key. A foreign key implies a
// dependency-graph edge ReferencedTable -> (table this FK belongs to).
type ForeignKey struct {
	Name             string `json:"name"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
	OnDelete         string `json:"on_delete,omitempty"`
	OnUpdate         string `json:"on_update,omitempty"`
}

// Validate checks the IR-level invariants from spec.md §3. It does not
// check cross-table referential integrity (that is the sorter/differ's job).
func (t *Table) Validate() error {
	for _, c := range t.Columns {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
	}
	if i := t.Indices; i != nil {
		for _, idx := range i {
			if idx.ColumnPrefixes != nil && len(idx.ColumnPrefixes) != len(idx.Columns) {
				return fmt.Errorf("table %q: index %q: column_prefixes length %d does not match columns length %d",
					t.Name, idx.Name, len(idx.ColumnPrefixes), len(idx.Columns))
			}
		}
	}
	return nil
}

func (c *Column) Validate() error {
	isDecimalFamily := c.DataType == "decimal" || c.DataType == "numeric"
	if !isDecimalFamily && (c.Precision != nil || c.Scale != nil) {
		return fmt.Errorf("column %q: precision/scale set on non-decimal type %q", c.Name, c.DataType)
	}
	if c.DataType == "enum" || c.DataType == "set" {
		if len(c.EnumValues) == 0 {
			return fmt.Errorf("column %q: enum_values must be non-empty for data type %q", c.Name, c.DataType)
		}
	}
	return nil
}

// PrimaryKeyColumns returns the ordered names of columns flagged as primary
// key, in the table's column order.
func (t *Table) PrimaryKeyColumns() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// ColumnNames returns the ordered column names of the table.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnByName looks up a column by name, or returns nil.
func (t *Table) ColumnByName(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// TableByName looks up a table by name, or returns nil.
func (s *Schema) TableByName(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Encode / Decode round-trip through the encoding/json package using
// the struct tags above; the snapshot format (spec.md §6) requires the
// field names, array ordering, and optionality encoded here, so there is no
// custom marshalling beyond what the tags already express.

// Encode writes the schema as indented JSON, matching the extract command's
// on-disk snapshot format. Nil slices are normalized to empty arrays first,
// since the snapshot format (spec.md §6, §8 scenario 1) requires "tables",
// "indices", and "foreign_keys" to be present as `[]`, never `null`, even
// for an empty database or a table with neither.
func (s *Schema) Encode() ([]byte, error) {
	s.normalizeEmptyCollections()
	return json.MarshalIndent(s, "", "  ")
}

func (s *Schema) normalizeEmptyCollections() {
	if s.Tables == nil {
		s.Tables = []*Table{}
	}
	for _, t := range s.Tables {
		if t.Indices == nil {
			t.Indices = []*Index{}
		}
		if t.ForeignKeys == nil {
			t.ForeignKeys = []*ForeignKey{}
		}
	}
}

// Decode parses a JSON snapshot previously produced by Encode.
func Decode(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: decode snapshot: %w", err)
	}
	return &s, nil
}
