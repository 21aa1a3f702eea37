package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxef/dbforge/internal/schema"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func baseSchema() *schema.Schema {
	return &schema.Schema{
		Tables: []*schema.Table{
			{
				Name: "users",
				Columns: []*schema.Column{
					{Name: "id", DataType: "integer", IsPrimaryKey: true},
					{Name: "email", DataType: "text", Length: intp(255)},
				},
				Indices: []*schema.Index{
					{Name: "u_email", Columns: []string{"email"}, Unique: true},
				},
			},
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	d := Diff(baseSchema(), baseSchema(), false)
	assert.True(t, d.IsEmpty())
}

func TestDiff_AddedTable(t *testing.T) {
	desired := baseSchema()
	desired.Tables = append(desired.Tables, &schema.Table{Name: "orders", Columns: []*schema.Column{{Name: "id", DataType: "integer"}}})
	actual := baseSchema()

	d := Diff(desired, actual, false)
	require.Len(t, d.CreateTables, 1)
	assert.Equal(t, "orders", d.CreateTables[0].Name)
}

func TestDiff_DroppedTable_OnlyWhenDestructive(t *testing.T) {
	desired := &schema.Schema{Tables: []*schema.Table{}}
	actual := baseSchema()

	nonDestructive := Diff(desired, actual, false)
	assert.Empty(t, nonDestructive.DropTables)

	destructive := Diff(desired, actual, true)
	require.Len(t, destructive.DropTables, 1)
	assert.Equal(t, "users", destructive.DropTables[0].Name)
}

func TestDiff_AddedColumn(t *testing.T) {
	desired := baseSchema()
	desired.Tables[0].Columns = append(desired.Tables[0].Columns, &schema.Column{Name: "locale", DataType: "text", Length: intp(8)})
	actual := baseSchema()

	d := Diff(desired, actual, false)
	require.Len(t, d.AlterTables, 1)
	require.Len(t, d.AlterTables[0].AddedColumns, 1)
	assert.Equal(t, "locale", d.AlterTables[0].AddedColumns[0].Name)
}

func TestDiff_ModifiedColumn_LengthChange(t *testing.T) {
	desired := baseSchema()
	desired.Tables[0].Columns[1].Length = intp(512)
	actual := baseSchema()

	d := Diff(desired, actual, false)
	require.Len(t, d.AlterTables, 1)
	require.Len(t, d.AlterTables[0].ModifiedColumns, 1)
	assert.Equal(t, "email", d.AlterTables[0].ModifiedColumns[0].Name)
}

func TestDiff_FloatDefaultNumericEquivalence(t *testing.T) {
	desired := baseSchema()
	desired.Tables[0].Columns = append(desired.Tables[0].Columns, &schema.Column{Name: "rate", DataType: "float", Default: strp("1.50")})
	actual := baseSchema()
	actual.Tables[0].Columns = append(actual.Tables[0].Columns, &schema.Column{Name: "rate", DataType: "float", Default: strp("1.5")})

	d := Diff(desired, actual, false)
	assert.Empty(t, d.AlterTables, "numerically equal float defaults must not be reported as a material difference")
}

func TestDiff_DroppedColumn_OnlyWhenDestructive(t *testing.T) {
	desired := baseSchema()
	desired.Tables[0].Columns = desired.Tables[0].Columns[:1]
	actual := baseSchema()

	nonDestructive := Diff(desired, actual, false)
	require.Empty(t, nonDestructive.AlterTables)

	destructive := Diff(desired, actual, true)
	require.Len(t, destructive.AlterTables, 1)
	require.Len(t, destructive.AlterTables[0].DroppedColumns, 1)
	assert.Equal(t, "email", destructive.AlterTables[0].DroppedColumns[0].Name)
}

func TestDiff_EquivalentIndexLeftUntouched(t *testing.T) {
	d := Diff(baseSchema(), baseSchema(), true)
	assert.Empty(t, d.AlterTables)
}

func TestDiff_NonEquivalentIndex_ReplacedRegardlessOfDestructive(t *testing.T) {
	desired := baseSchema()
	desired.Tables[0].Indices[0].Unique = false
	actual := baseSchema()

	d := Diff(desired, actual, false)
	require.Len(t, d.AlterTables, 1)
	require.Len(t, d.AlterTables[0].ReplacedIndices, 1)
}

func TestDiff_Idempotent(t *testing.T) {
	s := baseSchema()
	first := Diff(s, s, true)
	assert.True(t, first.IsEmpty())
}
