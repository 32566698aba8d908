package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-suitability/internal/boundary"
	"github.com/sells-group/solar-suitability/internal/etlerr"
	"github.com/sells-group/solar-suitability/internal/fixture"
	"github.com/sells-group/solar-suitability/internal/merge"
	"github.com/sells-group/solar-suitability/internal/suitability"
	"github.com/sells-group/solar-suitability/internal/table"
)

func square(x float64) shp.Shape {
	p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{fixture.Square(x, 0)}))
	return &p
}

func result() *merge.Result {
	nameDef := shp.StringField("NAME_2", 40)
	return &merge.Result{
		Fields: []merge.Field{
			{Name: "NAME_2", Source: "NAME_2", Kind: merge.Text, Role: merge.RoleName, Def: &nameDef},
			{Name: "Adapt", Source: "Adaptation_New", Kind: merge.Text, Role: merge.RoleCategory},
			{Name: "Comm_SIP", Source: "Community_SIP", Kind: merge.Text, Role: merge.RoleCommunity},
			{Name: "Has_CommSI", Source: "Community_SIP", Kind: merge.Boolean, Role: merge.RoleCommunityFlag},
			{Name: "Groundwate", Source: "Groundwate", Kind: merge.Text, Role: merge.RoleExtra},
			{Name: "Aquifer De", Source: "Aquifer De", Kind: merge.Number, Role: merge.RoleExtra},
		},
		Features: []merge.Feature{
			{Shape: square(0), Matched: true, Values: table.Row{
				table.Text("Pune"), table.Text("Highly Suitable"), table.Text("Community SIP"),
				table.Boolean(true), table.Text("Safe"), table.Num(12.5),
			}},
			{Shape: square(2), Values: table.Row{
				table.Text("Wayanad"), {}, {}, {}, {}, {},
			}},
		},
	}
}

func TestFill(t *testing.T) {
	res := result()
	n := Fill(res)
	assert.Equal(t, 5, n)

	row := res.Features[1].Values
	assert.Equal(t, table.Text(suitability.NoData), row[1])
	assert.Equal(t, table.Text(""), row[2])
	assert.Equal(t, table.Boolean(false), row[3])
	assert.Equal(t, table.Text(NotAvailable), row[4])
	assert.Equal(t, table.Num(0), row[5])

	assert.Equal(t, table.Text("Highly Suitable"), res.Features[0].Values[1])
}

func TestWrite_RoundTrip(t *testing.T) {
	res := result()
	Fill(res)
	dst := filepath.Join(t.TempDir(), "out", "true_solar_suitability.shp")

	created, err := Write(res, Options{Path: dst, Type: shp.POLYGON, Projection: fixture.WGS84, Source: "boundary.shp"})
	require.NoError(t, err)

	var exts []string
	for _, p := range created {
		exts = append(exts, filepath.Base(p))
	}
	assert.ElementsMatch(t, []string{
		"true_solar_suitability.shp", "true_solar_suitability.shx", "true_solar_suitability.dbf",
		"true_solar_suitability.prj", "true_solar_suitability.cpg", "true_solar_suitability.fields.yaml",
	}, exts)

	layer, err := boundary.Load(dst)
	require.NoError(t, err)
	require.Equal(t, 2, layer.Len())
	assert.Equal(t, []string{"NAME_2", "Adapt", "Comm_SIP", "Has_CommSI", "Groundwate", "Aquifer De"}, layer.FieldNames())
	assert.Equal(t, "Highly Suitable", layer.Attr(0, "Adapt"))
	assert.Equal(t, "T", layer.Attr(0, "Has_CommSI"))
	assert.Equal(t, "F", layer.Attr(1, "Has_CommSI"))
	assert.Equal(t, suitability.NoData, layer.Attr(1, "Adapt"))
	assert.Equal(t, NotAvailable, layer.Attr(1, "Groundwate"))
	assert.Equal(t, "12.500000", layer.Attr(0, "Aquifer De"))
	assert.Equal(t, fixture.WGS84, layer.Projection)

	assert.FileExists(t, boundary.Sidecar(dst, ".dbf"))
	assert.NoFileExists(t, boundary.Sidecar(dst, "dbf"))

	cpg, err := os.ReadFile(boundary.Sidecar(dst, ".cpg"))
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", string(cpg))

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 6, "staging directory should be gone")
}

func TestWrite_Manifest(t *testing.T) {
	res := result()
	Fill(res)
	dst := filepath.Join(t.TempDir(), "out.shp")
	_, err := Write(res, Options{Path: dst, Type: shp.POLYGON, Source: "boundary.shp"})
	require.NoError(t, err)

	m, err := ReadManifest(boundary.Sidecar(dst, ManifestExt))
	require.NoError(t, err)
	assert.Equal(t, "boundary.shp", m.Source)
	assert.Equal(t, 2, m.Features)
	require.Len(t, m.Fields, 6)
	assert.Equal(t, ManifestField{
		Name:   "Adapt",
		Source: "Adaptation_New",
		Type:   "text",
		Fill:   suitability.NoData,
		Levels: append([]string{suitability.NoData}, suitability.Adaptation.Levels...),
	}, m.Fields[1])
	assert.Empty(t, m.Fields[2].Levels)
	assert.Equal(t, "number", m.Fields[5].Type)
	assert.Equal(t, "0", m.Fields[5].Fill)
}

func TestWrite_InvalidGeometryLeavesNothing(t *testing.T) {
	res := result()
	res.Features[1].Shape = &shp.Polygon{NumParts: 1, Parts: []int32{0}, Points: []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
	dir := t.TempDir()

	_, err := Write(res, Options{Path: filepath.Join(dir, "out.shp"), Type: shp.POLYGON})
	var we *etlerr.WriteError
	require.ErrorAs(t, err, &we)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWrite_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Write(result(), Options{Path: filepath.Join(blocker, "out.shp"), Type: shp.POLYGON})
	assert.Equal(t, etlerr.KindWrite, etlerr.Kind(err))
}

func TestWrite_LongFieldName(t *testing.T) {
	res := result()
	res.Fields[4].Name = "Groundwater"
	_, err := Write(res, Options{Path: filepath.Join(t.TempDir(), "out.shp"), Type: shp.POLYGON})
	assert.Equal(t, etlerr.KindSchema, etlerr.Kind(err))
}

func TestWrite_DBFAttributes(t *testing.T) {
	res := result()
	Fill(res)
	dst := filepath.Join(t.TempDir(), "true_solar_suitability.shp")
	_, err := Write(res, Options{Path: dst, Type: shp.POLYGON})
	require.NoError(t, err)

	r, err := shp.Open(dst)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	var names []string
	for _, f := range r.Fields() {
		names = append(names, boundary.FieldName(f))
	}
	assert.Equal(t, []string{"NAME_2", "Adapt", "Comm_SIP", "Has_CommSI", "Groundwate", "Aquifer De"}, names)
	require.True(t, r.Next())
	assert.Equal(t, "Pune", strings.TrimRight(r.Attribute(0), "\x00"))
	assert.Equal(t, "Safe", strings.TrimRight(r.Attribute(4), "\x00"))
}

func TestWrite_ReplacesPreviousSet(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.shp")
	first := result()
	Fill(first)
	_, err := Write(first, Options{Path: dst, Type: shp.POLYGON, Projection: fixture.WGS84})
	require.NoError(t, err)
	require.FileExists(t, boundary.Sidecar(dst, ".prj"))

	res := result()
	res.Features = res.Features[:1]
	Fill(res)
	_, err = Write(res, Options{Path: dst, Type: shp.POLYGON})
	require.NoError(t, err)

	assert.NoFileExists(t, boundary.Sidecar(dst, ".prj"), "stale sidecar of the previous set")
	layer, err := boundary.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, 1, layer.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestPromote_RestoresPreviousSetOnFailure(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, ".staging")
	require.NoError(t, os.Mkdir(tmp, 0o755))

	for _, name := range []string{"out.shp", "out.dbf", "out.prj"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old"), 0o644))
	}
	for _, name := range []string{"out.dbf", "out.shp", "out.xml"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmp, name), []byte("new"), 0o644))
	}
	// A non-empty directory cannot be replaced by a file.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out.xml", "keep"), 0o755))

	_, err := promote(tmp, dir, "out")
	require.Error(t, err)

	for _, name := range []string{"out.shp", "out.dbf", "out.prj"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, "old", string(data), name)
	}
}

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "abc", truncateBytes("abc", 10))
	assert.Equal(t, "Dé", truncateBytes("Dév", 3))
	assert.Equal(t, "D", truncateBytes("Dév", 2))
	assert.True(t, utf8.ValidString(truncateBytes(strings.Repeat("é", 200), maxTextWidth)))
	assert.Len(t, truncateBytes(strings.Repeat("é", 200), maxTextWidth), maxTextWidth)

	v := attribute("Notes", table.Text(strings.Repeat("é", 200)))
	assert.True(t, utf8.ValidString(v.(string)))
}
