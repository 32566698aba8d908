// Package boundary loads administrative boundary shapefiles.
package boundary

import (
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-suitability/internal/etlerr"
)

// Feature is one boundary polygon and its attribute values, aligned with
// Layer.Fields.
type Feature struct {
	Shape shp.Shape
	Attrs []string
}

// Layer is a loaded shapefile.
type Layer struct {
	Path       string
	Type       shp.ShapeType
	Fields     []shp.Field
	Features   []Feature
	Projection string
}

// Sidecar returns path with its extension replaced by ext (".dbf", ".prj", ...).
func Sidecar(path, ext string) string {
	base := strings.TrimSuffix(path, ".shp")
	base = strings.TrimSuffix(base, ".SHP")
	return base + ext
}

// Load reads every feature of the shapefile at path. The .shx and .dbf companions
// are required; .prj is optional.
func Load(path string) (*Layer, error) {
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		p := Sidecar(path, ext)
		if _, err := os.Stat(p); err != nil {
			return nil, etlerr.NewMissingInput("shapefile", p, err)
		}
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, etlerr.NewMissingInput("shapefile", path, eris.Wrap(err, "boundary: open shapefile"))
	}
	defer func() { _ = reader.Close() }()

	layer := &Layer{
		Path:   path,
		Type:   reader.GeometryType,
		Fields: reader.Fields(),
	}

	for reader.Next() {
		_, shape := reader.Shape()
		attrs := make([]string, len(layer.Fields))
		for i := range layer.Fields {
			attrs[i] = cleanAttr(reader.Attribute(i))
		}
		layer.Features = append(layer.Features, Feature{Shape: shape, Attrs: attrs})
	}

	if prj, err := os.ReadFile(Sidecar(path, ".prj")); err == nil {
		layer.Projection = string(prj)
	} else {
		zap.L().Debug("boundary: no projection sidecar", zap.String("path", path))
	}

	return layer, nil
}

// FieldName returns the trimmed name of field i.
func FieldName(f shp.Field) string {
	return strings.TrimRight(f.String(), "\x00")
}

// FieldNames lists the attribute columns in file order.
func (l *Layer) FieldNames() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = FieldName(f)
	}
	return names
}

// FieldIndex returns the index of the named column, or -1.
func (l *Layer) FieldIndex(name string) int {
	for i, f := range l.Fields {
		if FieldName(f) == name {
			return i
		}
	}
	return -1
}

// Attr returns column name of feature i, "" when the column does not exist.
func (l *Layer) Attr(i int, name string) string {
	c := l.FieldIndex(name)
	if c < 0 || i < 0 || i >= len(l.Features) {
		return ""
	}
	return l.Features[i].Attrs[c]
}

// Len returns the number of features.
func (l *Layer) Len() int { return len(l.Features) }

// IsNameColumn reports whether a column carries an administrative name (NAME or
// NAME_<level>).
func IsNameColumn(name string) bool {
	up := strings.ToUpper(name)
	return up == "NAME" || strings.HasPrefix(up, "NAME_")
}

// KeepNameColumns drops every attribute column that is not a name column and
// returns the removed column names. Geometry is untouched.
func (l *Layer) KeepNameColumns() []string {
	var keep []int
	var removed []string
	for i, f := range l.Fields {
		if IsNameColumn(FieldName(f)) {
			keep = append(keep, i)
		} else {
			removed = append(removed, FieldName(f))
		}
	}

	fields := make([]shp.Field, len(keep))
	for j, i := range keep {
		fields[j] = l.Fields[i]
	}
	for k := range l.Features {
		attrs := make([]string, len(keep))
		for j, i := range keep {
			attrs[j] = l.Features[k].Attrs[i]
		}
		l.Features[k].Attrs = attrs
	}
	l.Fields = fields
	return removed
}

func cleanAttr(v string) string {
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}
