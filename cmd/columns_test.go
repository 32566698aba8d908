package main

import (
	"bytes"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-suitability/internal/boundary"
	"github.com/sells-group/solar-suitability/internal/fixture"
)

func TestFormatColumns(t *testing.T) {
	path := fixture.Shapefile(t, []string{"NAME_1", "NAME_2", "ID_2"}, []fixture.Feature{
		{Attrs: map[string]string{"NAME_1": "Maharashtra", "NAME_2": "Pune"}, Rings: [][]shp.Point{fixture.Square(73, 18)}},
		{Attrs: map[string]string{"NAME_1": "Kerala", "NAME_2": "Wayanad"}, Rings: [][]shp.Point{fixture.Square(75, 11)}},
	})
	layer, err := boundary.Load(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	formatColumns(&buf, layer)

	out := buf.String()
	assert.Contains(t, out, "NAME_1")
	assert.Contains(t, out, "NAME_2")
	assert.Contains(t, out, "ID_2")
	assert.Contains(t, out, "Features: 2")
	assert.Contains(t, out, "Geometry: Polygon")
	assert.Contains(t, out, "Bounds:   [73, 11] - [76, 19]")
}

func TestFormatColumns_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatColumns(&buf, &boundary.Layer{Type: shp.POLYGON})

	out := buf.String()
	assert.Contains(t, out, "Features: 0")
	assert.NotContains(t, out, "Bounds")
}

func TestGeometryName(t *testing.T) {
	assert.Equal(t, "Polygon", geometryName(shp.POLYGON))
	assert.Equal(t, "PolyLineZ", geometryName(shp.POLYLINEZ))
	assert.Equal(t, "Unknown(99)", geometryName(shp.ShapeType(99)))
}
