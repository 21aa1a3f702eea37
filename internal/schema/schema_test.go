package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int          { return &v }
func strPtr(v string) *string    { return &v }

func sampleSchema() *Schema {
	return &Schema{
		Metadata: Metadata{
			SourceSystem:       "mysql",
			SourceDatabaseName: "shop",
			CreatedAt:          "2026-07-31T00:00:00Z",
			ForgeVersion:       "0.1.0",
		},
		Tables: []*Table{
			{
				Name: "users",
				Columns: []*Column{
					{Name: "id", DataType: "integer", Nullable: false, IsPrimaryKey: true, AutoIncrement: true},
					{Name: "email", DataType: "varchar", Length: intPtr(255), Nullable: false},
					{Name: "balance", DataType: "decimal", Precision: intPtr(10), Scale: intPtr(2), Nullable: true, Default: strPtr("0.00")},
				},
				Indices: []*Index{
					{Name: "u_email", Columns: []string{"email"}, Unique: true},
				},
			},
		},
	}
}

func TestSchema_EncodeDecodeRoundTrip(t *testing.T) {
	s := sampleSchema()
	data, err := s.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, s.Metadata, decoded.Metadata)
	require.Len(t, decoded.Tables, 1)
	assert.Equal(t, s.Tables[0].Name, decoded.Tables[0].Name)
	require.Len(t, decoded.Tables[0].Columns, 3)
	assert.Equal(t, "id", decoded.Tables[0].Columns[0].Name)
	assert.True(t, decoded.Tables[0].Columns[0].IsPrimaryKey)
	assert.Equal(t, 255, *decoded.Tables[0].Columns[1].Length)
}

func TestSchema_Encode_EmptyDatabaseWritesEmptyArrays(t *testing.T) {
	s := &Schema{Metadata: Metadata{SourceSystem: "mysql", SourceDatabaseName: "empty"}}
	data, err := s.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tables": []`)
	assert.NotContains(t, string(data), "null")
}

func TestSchema_Encode_TableWithNoIndicesOrForeignKeysWritesEmptyArrays(t *testing.T) {
	s := &Schema{
		Tables: []*Table{{Name: "t", Columns: []*Column{{Name: "id", DataType: "integer"}}}},
	}
	data, err := s.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"indices": []`)
	assert.Contains(t, string(data), `"foreign_keys": []`)
}

func TestTable_Validate_PrecisionOnNonDecimal(t *testing.T) {
	tbl := &Table{
		Name: "bad",
		Columns: []*Column{
			{Name: "x", DataType: "varchar", Precision: intPtr(5)},
		},
	}
	assert.Error(t, tbl.Validate())
}

func TestTable_Validate_EnumRequiresValues(t *testing.T) {
	tbl := &Table{
		Name: "bad",
		Columns: []*Column{
			{Name: "status", DataType: "enum"},
		},
	}
	assert.Error(t, tbl.Validate())
}

func TestTable_Validate_IndexColumnPrefixesLengthMismatch(t *testing.T) {
	tbl := &Table{
		Name:    "t",
		Columns: []*Column{{Name: "a", DataType: "varchar"}},
		Indices: []*Index{
			{Name: "i", Columns: []string{"a", "b"}, ColumnPrefixes: []int{5}},
		},
	}
	assert.Error(t, tbl.Validate())
}

func TestTable_PrimaryKeyColumns(t *testing.T) {
	tbl := sampleSchema().Tables[0]
	assert.Equal(t, []string{"id"}, tbl.PrimaryKeyColumns())
	assert.Equal(t, []string{"id", "email", "balance"}, tbl.ColumnNames())
}
