// Package fixture builds small workbooks and shapefiles on disk for tests.
package fixture

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// Sheet is a grid of cells. Cell values may be string, float64, int, bool or nil.
type Sheet [][]any

// Workbook writes sheets to an xlsx file in a temp dir and returns its path.
// Sheets are added in name order.
func Workbook(t *testing.T, sheets map[string]Sheet) string {
	t.Helper()
	f := xlsx.NewFile()

	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range sheets[name] {
			row := sheet.AddRow()
			for _, v := range rowData {
				cell := row.AddCell()
				switch x := v.(type) {
				case nil:
				case string:
					cell.SetString(x)
				case float64:
					cell.SetFloat(x)
				case int:
					cell.SetInt(x)
				case bool:
					cell.SetBool(x)
				default:
					t.Fatalf("fixture: unsupported cell type %T", v)
				}
			}
		}
	}

	path := filepath.Join(t.TempDir(), "workbook.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

// Feature is one polygon with string attributes keyed by field name.
type Feature struct {
	Attrs map[string]string
	Rings [][]shp.Point
}

// Square returns a closed unit-square ring offset by (x, y).
func Square(x, y float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y}, {X: x, Y: y + 1}, {X: x + 1, Y: y + 1}, {X: x + 1, Y: y}, {X: x, Y: y},
	}
}

// Shapefile writes a polygon shapefile with the given string fields and features,
// plus a .prj sidecar, and returns the .shp path.
func Shapefile(t *testing.T, fields []string, features []Feature) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boundary.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	defs := make([]shp.Field, len(fields))
	for i, name := range fields {
		defs[i] = shp.StringField(name, 50)
	}
	require.NoError(t, w.SetFields(defs))

	for _, f := range features {
		poly := shp.Polygon(*shp.NewPolyLine(f.Rings))
		n := int(w.Write(&poly))
		for i, name := range fields {
			require.NoError(t, w.WriteAttribute(n, i, f.Attrs[name]))
		}
	}
	w.Close()

	base := strings.TrimSuffix(path, ".shp")
	// go-shp writes the attribute table without the dot before "dbf".
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	require.NoError(t, os.WriteFile(base+".prj", []byte(WGS84), 0o644))
	return path
}

// WGS84 is the ESRI WKT written to fixture .prj files.
const WGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`
