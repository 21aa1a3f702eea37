package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxef/dbforge/internal/schema"
)

func table(name string, fks ...*schema.ForeignKey) *schema.Table {
	return &schema.Table{Name: name, Columns: []*schema.Column{{Name: "id", DataType: "integer"}}, ForeignKeys: fks}
}

func fk(col, refTable string) *schema.ForeignKey {
	return &schema.ForeignKey{Name: col + "_fk", Column: col, ReferencedTable: refTable, ReferencedColumn: "id"}
}

func names(tables []*schema.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

func TestSort_OrdersParentBeforeChild(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		table("orders", fk("customer_id", "customers")),
		table("customers"),
		table("items", fk("order_id", "orders")),
	}}

	sorted, err := Sort(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders", "items"}, names(sorted))
}

func TestSort_NoForeignKeysIsNoOp(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{table("a"), table("b"), table("c")}}
	sorted, err := Sort(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(sorted))
}

func TestSort_IgnoresReferenceOutsideSchema(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		table("orders", fk("customer_id", "customers_not_in_schema")),
	}}
	sorted, err := Sort(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, names(sorted))
}

func TestSort_DetectsCycle(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		table("a", fk("b_id", "b")),
		table("b", fk("a_id", "a")),
	}}
	_, err := Sort(s)
	require.Error(t, err)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.Tables)
}

func TestSort_DetectsSelfReference(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		table("categories", fk("parent_id", "categories")),
	}}
	_, err := Sort(s)
	require.Error(t, err)
}
