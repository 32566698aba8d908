package acronym

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-suitability/internal/etlerr"
	"github.com/sells-group/solar-suitability/internal/table"
)

func acronymSheet() *table.Table {
	return &table.Table{
		Name:    "GIS layer accronym",
		Columns: []string{OriginalColumn, ShortColumn},
		Rows: []table.Row{
			{table.Str("Cropping Intensity (%)"), table.Str("CI_____1")},
			{table.Str("Irrigation Coverage (%)"), table.Str("Irrig_cov_")},
			{table.Str("Orphan label"), table.Value{}},
			{table.Value{}, table.Str("C_SWC")},
			{table.Str("Cropping Intensity (%)"), table.Str("ignored")},
		},
	}
}

func TestBuild_SkipsIncompleteRows(t *testing.T) {
	l, err := Build(acronymSheet(), OriginalColumn, ShortColumn)
	require.NoError(t, err)

	assert.Equal(t, 2, l.Len())
	got, ok := l.Get("Cropping Intensity (%)")
	assert.True(t, ok)
	assert.Equal(t, "CI_____1", got)

	_, ok = l.Get("Orphan label")
	assert.False(t, ok)
	assert.Equal(t, []string{"Cropping Intensity (%)", "Irrigation Coverage (%)"}, l.Labels())
}

func TestBuild_FoldedLookup(t *testing.T) {
	l, err := Build(acronymSheet(), OriginalColumn, ShortColumn)
	require.NoError(t, err)

	got, ok := l.Get("irrigation  coverage (%) ")
	assert.True(t, ok)
	assert.Equal(t, "Irrig_cov_", got)
}

func TestBuild_MissingColumns(t *testing.T) {
	_, err := Build(&table.Table{Name: "acr", Columns: []string{"Original"}}, OriginalColumn, ShortColumn)
	assert.Equal(t, etlerr.KindSchema, etlerr.Kind(err))
}

func TestNamer_Name(t *testing.T) {
	l, err := Build(acronymSheet(), OriginalColumn, ShortColumn)
	require.NoError(t, err)
	n := Namer{Lookup: l, Limit: 10, Truncate: true, Keep: []string{"State", "District"}}

	assert.Equal(t, "CI_____1", n.Name("Cropping Intensity (%)"))
	assert.Equal(t, "Groundwate", n.Name("Groundwater Development Status"))
	assert.Equal(t, "District", n.Name("District"))
	assert.Equal(t, "Short", n.Name("Short"))
}

func TestNamer_TruncateDisabled(t *testing.T) {
	n := Namer{Limit: 10, Truncate: false}
	assert.Equal(t, "Groundwater Development Status", n.Name("Groundwater Development Status"))
}

func TestNamer_NilLookup(t *testing.T) {
	n := Namer{Limit: 4, Truncate: true}
	assert.Equal(t, "Grou", n.Name("Groundwater"))
	assert.Equal(t, "Ñu", n.Name("Ñußéxyz"))
}

func TestNamer_TruncatesToBytes(t *testing.T) {
	n := Namer{Limit: 10, Truncate: true}
	got := n.Name("Développement durable")
	assert.Equal(t, "Développe", got)
	assert.Len(t, got, 10)

	got = n.Name("Ñandú Ñandú Ñandú")
	assert.LessOrEqual(t, len(got), 10)
	assert.True(t, utf8.ValidString(got))

	names := n.Assign([]string{"Développement durable", "Développement rural"})
	for _, name := range names {
		assert.LessOrEqual(t, len(name), 10, name)
		assert.True(t, utf8.ValidString(name), name)
	}
}

func TestNamer_AssignSuffixesCollisions(t *testing.T) {
	n := Namer{Limit: 10, Truncate: true, Keep: []string{"District"}}
	got := n.Assign([]string{
		"District",
		"Groundwater Development Status",
		"Groundwater Depth",
		"Groundwater Quality",
	})
	assert.Equal(t, []string{"District", "Groundwate", "Groundwat1", "Groundwat2"}, got)
	for _, name := range got {
		assert.LessOrEqual(t, len(name), 10)
	}
}
