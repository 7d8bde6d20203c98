package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bambangdb/bambangdb/internal/catalog"
	"github.com/bambangdb/bambangdb/internal/value"
)

func testTable() catalog.TableDef {
	return catalog.TableDef{
		Name: "people",
		Columns: []catalog.ColumnDef{
			{Name: "id", DataType: "INTEGER"},
			{Name: "name", DataType: "TEXT", Nullable: true},
			{Name: "active", DataType: "BOOLEAN", Default: "1"},
		},
	}
}

func TestValidateAcceptsMatchingTypes(t *testing.T) {
	r := require.New(t)
	err := Validate(testTable(), []value.Value{value.Integer(1), value.Text("a"), value.Boolean(true)})
	r.NoError(err)
}

func TestValidateRejectsNonNullableNull(t *testing.T) {
	r := require.New(t)
	err := Validate(testTable(), []value.Value{value.Null(), value.Text("a"), value.Boolean(true)})
	r.Error(err)
}

func TestValidateRejectsWrongType(t *testing.T) {
	r := require.New(t)
	err := Validate(testTable(), []value.Value{value.Text("not an int"), value.Text("a"), value.Boolean(true)})
	r.Error(err)
}

func TestValidateAcceptsBooleanForIntegerColumn(t *testing.T) {
	r := require.New(t)
	err := Validate(testTable(), []value.Value{value.Boolean(true), value.Text("a"), value.Boolean(true)})
	r.NoError(err)
}

func TestApplyDefaultsFillsMissingColumn(t *testing.T) {
	r := require.New(t)
	out, err := ApplyDefaults(testTable(), map[string]value.Value{
		"id":   value.Integer(7),
		"name": value.Text("bob"),
	})
	r.NoError(err)
	r.Len(out, 3)
	r.True(out[2].Boolean)
}

func TestApplyDefaultsErrorsWithoutDefault(t *testing.T) {
	r := require.New(t)
	_, err := ApplyDefaults(testTable(), map[string]value.Value{
		"name": value.Text("bob"),
	})
	r.Error(err)
}
