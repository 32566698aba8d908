package master

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-suitability/internal/acronym"
	"github.com/sells-group/solar-suitability/internal/etlerr"
	"github.com/sells-group/solar-suitability/internal/table"
)

var (
	s = table.Str
	n = table.Num
)

func inputs() Inputs {
	return Inputs{
		Ranking: &table.Table{
			Name:    "Solar Suitability_new_ranking",
			Columns: []string{"District Name", "Adaptation", "Mitigation", "Replacement"},
			Rows: []table.Row{
				{s("Pune"), s("Highly Suitable"), s("Less Suitable"), s("Moderately Suitable")},
				{s("North 24 Parganas"), s("Less Suitable"), s("Highly Suitable"), s("Less Suitable")},
				{s("PUNE "), s("dup"), s("dup"), s("dup")},
				{table.Value{}, s("orphan"), s("orphan"), s("orphan")},
			},
		},
		Recommendation: &table.Table{
			Name:    "District_recommendation",
			Columns: []string{"State", "District", "Cropping Intensity (%)", "Groundwater Development Status"},
			Rows: []table.Row{
				{s("Maharashtra"), s("pune"), n(140), s("Safe")},
				{s("West Bengal"), s("North-24-Parganas"), n(180), table.Value{}},
				{s("Kerala"), s("Wayanad"), n(120), s("Safe")},
			},
		},
		Community: &table.Table{
			Name:    "Community SIP",
			Columns: []string{"State", "District", "Final"},
			Rows: []table.Row{
				{s("Maharashtra"), s("Pune"), s("Community SIP")},
			},
		},
		Potential: &table.Table{
			Name:    "potential",
			Columns: []string{"District", "Final Potential"},
			Rows: []table.Row{
				{s("Pune"), s("Highly Suitable (Mitigation)")},
				{s("Pune"), s("second row ignored")},
			},
		},
		Namer: acronym.Namer{
			Lookup:   mustLookup(),
			Limit:    10,
			Truncate: true,
			Keep:     []string{ColState, ColDistrict},
		},
	}
}

func mustLookup() *acronym.Lookup {
	l, err := acronym.Build(&table.Table{
		Columns: []string{acronym.OriginalColumn, acronym.ShortColumn},
		Rows:    []table.Row{{s("Cropping Intensity (%)"), s("CI_____1")}},
	}, acronym.OriginalColumn, acronym.ShortColumn)
	if err != nil {
		panic(err)
	}
	return l
}

func TestBuild_OneRecordPerKey(t *testing.T) {
	set, err := Build(inputs())
	require.NoError(t, err)

	require.Equal(t, 2, set.Len())
	assert.Equal(t, "pune", set.Records[0].Key)
	assert.Equal(t, "north24parganas", set.Records[1].Key)

	pune, ok := set.Lookup("pune")
	require.True(t, ok)
	assert.Equal(t, "Highly Suitable", set.Value(pune, ColAdaptation).Str)
	assert.Equal(t, "Pune", set.Value(pune, ColDistrict).Str)
}

func TestBuild_Columns(t *testing.T) {
	set, err := Build(inputs())
	require.NoError(t, err)

	assert.Equal(t, []string{
		ColDistrict, ColAdaptation, ColMitigation, ColReplacement,
		ColState, "CI_____1", "Groundwate",
		ColCommunity, ColPotential,
	}, set.Columns)
}

func TestBuild_EarlierColumnWins(t *testing.T) {
	set, err := Build(inputs())
	require.NoError(t, err)

	// The recommendation sheet spells it "North-24-Parganas"; the ranking value stays.
	rec, _ := set.Lookup("north24parganas")
	assert.Equal(t, "North 24 Parganas", set.Value(rec, ColDistrict).Str)
}

func TestBuild_JoinedValues(t *testing.T) {
	set, err := Build(inputs())
	require.NoError(t, err)

	pune, _ := set.Lookup("pune")
	assert.Equal(t, "Maharashtra", set.Value(pune, ColState).Str)
	assert.Equal(t, 140.0, set.Value(pune, "CI_____1").Num)
	assert.Equal(t, "Community SIP", set.Value(pune, ColCommunity).Str)
	assert.Equal(t, "Highly Suitable (Mitigation)", set.Value(pune, ColPotential).Str)

	ngp, _ := set.Lookup("north24parganas")
	assert.Equal(t, "West Bengal", set.Value(ngp, ColState).Str)
	assert.True(t, set.Value(ngp, "Groundwate").IsMissing())

	comm := set.Value(ngp, ColCommunity)
	assert.False(t, comm.IsMissing())
	assert.Equal(t, "", comm.Str)

	assert.True(t, set.Value(ngp, ColPotential).IsMissing())
}

func TestBuild_KeysOnlyInJoinedSheetsDiscarded(t *testing.T) {
	set, err := Build(inputs())
	require.NoError(t, err)
	_, ok := set.Lookup("wayanad")
	assert.False(t, ok)
}

func TestBuild_IsNumeric(t *testing.T) {
	set, err := Build(inputs())
	require.NoError(t, err)
	assert.True(t, set.IsNumeric(set.Col("CI_____1")))
	assert.False(t, set.IsNumeric(set.Col("Groundwate")))
	assert.Equal(t, []string{"Pune"}, set.Districts(1))
}

func TestBuild_RankingTooNarrow(t *testing.T) {
	in := inputs()
	in.Ranking = &table.Table{Name: "rank", Columns: []string{"District", "A"}}
	_, err := Build(in)
	assert.Equal(t, etlerr.KindSchema, etlerr.Kind(err))
}

func TestBuild_MissingRequiredColumns(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"recommendation", func(in *Inputs) { in.Recommendation.Columns[1] = "Dist" }},
		{"community", func(in *Inputs) { in.Community.Columns[2] = "Status" }},
		{"potential", func(in *Inputs) { in.Potential.Columns[1] = "Potential" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputs()
			tt.mutate(&in)
			_, err := Build(in)
			var se *etlerr.SchemaError
			require.ErrorAs(t, err, &se)
		})
	}
}
