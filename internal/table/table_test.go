package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-suitability/internal/etlerr"
)

func sample() *Table {
	return &Table{
		Name:    "potential",
		Columns: []string{"District", "Final Potential", "Notes"},
		Rows: []Row{
			{Str("Pune"), Num(3.5), Str("ok")},
			{Str("Nashik"), Value{}},
			{Str("Thane"), Num(1), Num(7)},
		},
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "", Value{}.String())
	assert.Equal(t, "3.5", Num(3.5).String())
	assert.Equal(t, "12", Num(12).String())
	assert.Equal(t, "True", Boolean(true).String())
	assert.Equal(t, "Pune", Str("Pune").String())
}

func TestStr_BlankIsMissing(t *testing.T) {
	assert.True(t, Str("   ").IsMissing())
	assert.False(t, Str("x").IsMissing())
}

func TestTable_IndexFold(t *testing.T) {
	tb := sample()
	assert.Equal(t, 1, tb.Index("Final Potential"))
	assert.Equal(t, -1, tb.Index("final potential"))
	assert.Equal(t, 1, tb.IndexFold(" final potential "))
	assert.Equal(t, -1, tb.IndexFold("Missing"))
}

func TestTable_Require(t *testing.T) {
	tb := sample()
	idx, err := tb.Require("district", "Final Potential")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, idx)

	_, err = tb.Require("District", "State", "Final")
	var se *etlerr.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"State", "Final"}, se.Columns)
	assert.Equal(t, "potential", se.Table)
}

func TestTable_CellShortRow(t *testing.T) {
	tb := sample()
	assert.True(t, tb.Cell(1, 2).IsMissing())
	assert.True(t, tb.Cell(9, 0).IsMissing())
	assert.Equal(t, "Pune", tb.Cell(0, 0).Str)
}

func TestTable_ColumnIsNumeric(t *testing.T) {
	tb := sample()
	assert.True(t, tb.ColumnIsNumeric(1))
	assert.False(t, tb.ColumnIsNumeric(0))
	assert.False(t, tb.ColumnIsNumeric(2))

	empty := &Table{Columns: []string{"a"}, Rows: []Row{{}, {}}}
	assert.True(t, empty.ColumnIsNumeric(0))
}

func TestText_KeepsEmpty(t *testing.T) {
	v := Text("")
	assert.False(t, v.IsMissing())
	assert.Equal(t, "", v.String())
}
