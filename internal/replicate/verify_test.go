package replicate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxef/dbforge/internal/driver"
	"github.com/fluxef/dbforge/internal/schema"
	"github.com/fluxef/dbforge/internal/value"
)

func TestVerify_EqualTablesPass(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()

	source.tables["t"] = []driver.Row{intRow(1), intRow(2)}
	target.tables["t"] = []driver.Row{intRow(1), intRow(2)}

	table := &schema.Table{
		Name:    "t",
		Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}},
	}

	err := Verify(context.Background(), source, target, table)
	require.NoError(t, err)
}

func TestVerify_NullBridgesZeroDateTime(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()

	source.tables["t"] = []driver.Row{
		{{Column: "id", Value: value.Integer(1)}, {Column: "dob", Value: value.ZeroDateTime()}},
	}
	target.tables["t"] = []driver.Row{
		{{Column: "id", Value: value.Integer(1)}, {Column: "dob", Value: value.Null()}},
	}

	table := &schema.Table{
		Name:    "t",
		Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}, {Name: "dob", DataType: "datetime"}},
	}

	err := Verify(context.Background(), source, target, table)
	assert.NoError(t, err)
}

func TestVerify_CrossSignednessIntegerEquality(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()

	source.tables["t"] = []driver.Row{
		{{Column: "id", Value: value.Integer(1)}, {Column: "n", Value: value.Integer(42)}},
	}
	target.tables["t"] = []driver.Row{
		{{Column: "id", Value: value.Integer(1)}, {Column: "n", Value: value.UnsignedInteger(42)}},
	}

	table := &schema.Table{
		Name:    "t",
		Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}, {Name: "n", DataType: "bigint"}},
	}

	err := Verify(context.Background(), source, target, table)
	assert.NoError(t, err)
}

func TestVerify_MismatchedValuesFail(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()

	source.tables["t"] = []driver.Row{
		{{Column: "id", Value: value.Integer(1)}, {Column: "name", Value: value.Text("alice")}},
	}
	target.tables["t"] = []driver.Row{
		{{Column: "id", Value: value.Integer(1)}, {Column: "name", Value: value.Text("bob")}},
	}

	table := &schema.Table{
		Name:    "t",
		Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}, {Name: "name", DataType: "varchar"}},
	}

	err := Verify(context.Background(), source, target, table)
	require.Error(t, err)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "t", mismatch.Table)
}

func TestVerify_RowCountMismatchFails(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()

	source.tables["t"] = []driver.Row{
		{{Column: "id", Value: value.Integer(1)}},
		{{Column: "id", Value: value.Integer(2)}},
	}
	target.tables["t"] = []driver.Row{
		{{Column: "id", Value: value.Integer(1)}},
	}

	table := &schema.Table{Name: "t", Columns: []*schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}}}

	err := Verify(context.Background(), source, target, table)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestVerify_FallsBackToAllColumnsOrderingWhenNoPrimaryKey(t *testing.T) {
	source := newFakeDriver()
	target := newFakeDriver()

	source.tables["t"] = []driver.Row{
		{{Column: "a", Value: value.Integer(1)}},
	}
	target.tables["t"] = []driver.Row{
		{{Column: "a", Value: value.Integer(1)}},
	}

	table := &schema.Table{Name: "t", Columns: []*schema.Column{{Name: "a", DataType: "integer"}}}

	err := Verify(context.Background(), source, target, table)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a"}, source.streamOrderBy)
	assert.Equal(t, []string{"a"}, target.streamOrderBy)
}
