package output

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/solar-suitability/internal/merge"
	"github.com/sells-group/solar-suitability/internal/suitability"
)

// ManifestExt is the suffix of the field manifest written beside the shapefile.
const ManifestExt = ".fields.yaml"

// Manifest documents where every short output field came from, since the DBF
// format only keeps the 10-character name.
type Manifest struct {
	Source   string          `yaml:"source,omitempty"`
	Features int             `yaml:"features"`
	Fields   []ManifestField `yaml:"fields"`
}

// ManifestField describes one output field.
type ManifestField struct {
	Name   string   `yaml:"name"`
	Source string   `yaml:"source"`
	Type   string   `yaml:"type"`
	Fill   string   `yaml:"fill"`
	Levels []string `yaml:"levels,omitempty"` // allowed values of a category field
}

// NewManifest describes the fields of res.
func NewManifest(res *merge.Result, source string) Manifest {
	m := Manifest{Source: source, Features: len(res.Features)}
	for _, f := range res.Fields {
		mf := ManifestField{
			Name:   f.Name,
			Source: f.Source,
			Type:   f.Kind.String(),
			Fill:   FillValue(f).String(),
		}
		if cat, ok := suitability.ByField(f.Name); ok && f.Role == merge.RoleCategory {
			mf.Levels = append([]string{suitability.NoData}, cat.Levels...)
		}
		m.Fields = append(m.Fields, mf)
	}
	return m
}

// WriteManifest encodes m as YAML at path.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "output: encode manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "output: write manifest")
	}
	return nil
}

// ReadManifest decodes the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "output: read manifest")
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "output: parse manifest")
	}
	return &m, nil
}
