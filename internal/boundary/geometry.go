package boundary

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ToGeom converts a go-shp shape to a go-geom geometry. Polygons become
// MultiPolygons with one polygon per ring. Nil and unsupported shapes return nil.
func ToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PolyLine:
		return polyLineToMultiLineString(s)
	case *shp.Polygon:
		return polygonToMultiPolygon(s)
	default:
		return nil
	}
}

// Validate checks that every polygon ring has at least four points and is closed.
// Nil shapes are accepted and written as null geometries.
func Validate(shape shp.Shape) error {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil {
		return nil
	}
	for i, part := range parts(p.NumParts, p.Parts, len(p.Points)) {
		if part[0] < 0 || part[1] > len(p.Points) || part[0] > part[1] {
			return eris.Errorf("boundary: ring %d has out-of-range part offsets", i)
		}
	}
	mp, ok := ToGeom(p).(*geom.MultiPolygon)
	if !ok || mp == nil {
		return eris.New("boundary: polygon has no rings")
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		ring := mp.Polygon(i).LinearRing(0)
		n := ring.NumCoords()
		if n < 4 {
			return eris.Errorf("boundary: ring %d has %d points, need at least 4", i, n)
		}
		if !ring.Coord(0).Equal(geom.XY, ring.Coord(n-1)) {
			return eris.Errorf("boundary: ring %d is not closed", i)
		}
	}
	return nil
}

// Bounds returns the extent of every feature in the layer.
func (l *Layer) Bounds() *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	for _, f := range l.Features {
		if g := ToGeom(f.Shape); g != nil {
			b.Extend(g)
		}
	}
	return b
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}
	mls := geom.NewMultiLineString(geom.XY)
	for _, part := range parts(pl.NumParts, pl.Parts, len(pl.Points)) {
		ls := geom.NewLineStringFlat(geom.XY, flatCoords(pl.Points[part[0]:part[1]]))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("boundary: skipping malformed linestring part", zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for _, part := range parts(p.NumParts, p.Parts, len(p.Points)) {
		if part[0] < 0 || part[1] > len(p.Points) || part[0] > part[1] {
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flatCoords(p.Points[part[0]:part[1]]))
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon part", zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// parts returns [start, end) point offsets for each part.
func parts(numParts int32, offsets []int32, numPoints int) [][2]int {
	out := make([][2]int, 0, numParts)
	for i := int32(0); i < numParts && int(i) < len(offsets); i++ {
		start := int(offsets[i])
		end := numPoints
		if i+1 < numParts && int(i+1) < len(offsets) {
			end = int(offsets[i+1])
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func flatCoords(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, pt := range points {
		flat = append(flat, pt.X, pt.Y)
	}
	return flat
}
