package output

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-suitability/internal/boundary"
	"github.com/sells-group/solar-suitability/internal/etlerr"
	"github.com/sells-group/solar-suitability/internal/merge"
	"github.com/sells-group/solar-suitability/internal/table"
)

// DBF limits.
const (
	maxFieldName  = 10
	maxTextWidth  = 254
	numberWidth   = 24
	numberDecimal = 6
)

// Options configures Write.
type Options struct {
	Path       string        // destination .shp
	Type       shp.ShapeType // geometry type of the source layer
	Projection string        // .prj contents; skipped when empty
	Encoding   string        // .cpg contents
	Source     string        // recorded in the field manifest
}

// Write persists res as a shapefile set (.shp, .shx, .dbf, .prj, .cpg) plus a field
// manifest. Files are staged in a temporary directory next to the destination and
// moved into place only after every file was written, so a failure leaves no partial
// set behind. It returns the created paths.
func Write(res *merge.Result, opts Options) ([]string, error) {
	for i, f := range res.Features {
		if err := boundary.Validate(f.Shape); err != nil {
			return nil, etlerr.NewWriteError(opts.Path, eris.Wrapf(err, "output: feature %d has invalid geometry", i))
		}
	}

	defs, err := fieldDefs(res)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(opts.Path)
	base := strings.TrimSuffix(filepath.Base(opts.Path), filepath.Ext(opts.Path))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, etlerr.NewWriteError(opts.Path, eris.Wrap(err, "output: create directory"))
	}
	tmp, err := os.MkdirTemp(dir, ".suitability-*")
	if err != nil {
		return nil, etlerr.NewWriteError(opts.Path, eris.Wrap(err, "output: create staging directory"))
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	staged := filepath.Join(tmp, base+".shp")
	if err := writeShapefile(staged, res, defs, opts.Type); err != nil {
		return nil, etlerr.NewWriteError(opts.Path, err)
	}

	if opts.Projection != "" {
		if err := os.WriteFile(boundary.Sidecar(staged, ".prj"), []byte(opts.Projection), 0o644); err != nil {
			return nil, etlerr.NewWriteError(opts.Path, eris.Wrap(err, "output: write .prj"))
		}
	}
	encoding := opts.Encoding
	if encoding == "" {
		encoding = "UTF-8"
	}
	if err := os.WriteFile(boundary.Sidecar(staged, ".cpg"), []byte(encoding), 0o644); err != nil {
		return nil, etlerr.NewWriteError(opts.Path, eris.Wrap(err, "output: write .cpg"))
	}
	if err := WriteManifest(boundary.Sidecar(staged, ManifestExt), NewManifest(res, opts.Source)); err != nil {
		return nil, etlerr.NewWriteError(opts.Path, err)
	}

	created, err := promote(tmp, dir, base)
	if err != nil {
		return nil, etlerr.NewWriteError(opts.Path, err)
	}
	zap.L().Info("output: created files", zap.Strings("files", created))
	return created, nil
}

func writeShapefile(path string, res *merge.Result, defs []shp.Field, typ shp.ShapeType) error {
	w, err := shp.Create(path, typ)
	if err != nil {
		return eris.Wrap(err, "output: create shapefile")
	}
	err = writeRecords(w, res, defs)
	w.Close()
	if err != nil {
		return err
	}
	return renameDBF(path)
}

func writeRecords(w *shp.Writer, res *merge.Result, defs []shp.Field) error {
	if err := w.SetFields(defs); err != nil {
		return eris.Wrap(err, "output: set fields")
	}

	for _, f := range res.Features {
		shape := f.Shape
		if shape == nil {
			shape = &shp.Null{}
		}
		row := int(w.Write(shape))
		for j, v := range f.Values {
			if err := w.WriteAttribute(row, j, attribute(res.Fields[j].Name, v)); err != nil {
				return eris.Wrapf(err, "output: write field %s of feature %d", res.Fields[j].Name, row)
			}
		}
	}
	return nil
}

// renameDBF gives the attribute table its extension. go-shp drops the dot when it
// derives the .dbf name from the .shp path.
func renameDBF(path string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrap(err, "output: name attribute table")
	}
	return nil
}

// fieldDefs derives the DBF column definitions. Boundary name columns keep their
// source definition.
func fieldDefs(res *merge.Result) ([]shp.Field, error) {
	defs := make([]shp.Field, len(res.Fields))
	for j, f := range res.Fields {
		if len(f.Name) > maxFieldName {
			return nil, &etlerr.SchemaError{Columns: []string{f.Name}, Reason: "field name longer than 10 bytes"}
		}
		switch {
		case f.Def != nil && f.Role == merge.RoleName:
			defs[j] = *f.Def
		case f.Kind == merge.Number:
			defs[j] = shp.FloatField(f.Name, numberWidth, numberDecimal)
		case f.Kind == merge.Boolean:
			d := shp.StringField(f.Name, 1)
			d.Fieldtype = 'L'
			defs[j] = d
		default:
			defs[j] = shp.StringField(f.Name, textWidth(res, j))
		}
	}
	return defs, nil
}

func textWidth(res *merge.Result, j int) uint8 {
	width := 1
	for _, f := range res.Features {
		if n := len(f.Values.At(j).String()); n > width {
			width = n
		}
	}
	if width > maxTextWidth {
		width = maxTextWidth
	}
	return uint8(width)
}

func attribute(field string, v table.Value) any {
	switch v.Kind {
	case table.Number:
		return v.Num
	case table.Bool:
		if v.Flag {
			return "T"
		}
		return "F"
	default:
		s := v.String()
		if len(s) > maxTextWidth {
			cut := truncateBytes(s, maxTextWidth)
			zap.L().Warn("output: text value truncated",
				zap.String("field", field),
				zap.Int("bytes", len(s)),
				zap.Int("kept", len(cut)),
			)
			s = cut
		}
		return s
	}
}

// truncateBytes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// setExts lists the files that make up one output set.
var setExts = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ManifestExt}

// promote moves every staged file into dir. An existing output set named base is
// moved aside first. If any move fails, the new files are removed and the previous
// set is put back.
func promote(tmp, dir, base string) ([]string, error) {
	entries, err := os.ReadDir(tmp)
	if err != nil {
		return nil, eris.Wrap(err, "output: read staging directory")
	}

	backup := filepath.Join(tmp, "previous")
	if err := os.Mkdir(backup, 0o755); err != nil {
		return nil, eris.Wrap(err, "output: create backup directory")
	}
	var saved, moved []string
	rollback := func() {
		for _, m := range moved {
			_ = os.Remove(m)
		}
		for _, name := range saved {
			if err := os.Rename(filepath.Join(backup, name), filepath.Join(dir, name)); err != nil {
				zap.L().Error("output: failed to restore previous file", zap.String("file", name), zap.Error(err))
			}
		}
	}

	for _, ext := range setExts {
		name := base + ext
		err := os.Rename(filepath.Join(dir, name), filepath.Join(backup, name))
		switch {
		case err == nil:
			saved = append(saved, name)
		case errors.Is(err, fs.ErrNotExist):
		default:
			rollback()
			return nil, eris.Wrapf(err, "output: move previous %s aside", name)
		}
	}
	if len(saved) > 0 {
		zap.L().Debug("output: replacing previous output", zap.Strings("files", saved))
	}

	for _, e := range entries {
		dst := filepath.Join(dir, e.Name())
		if err := os.Rename(filepath.Join(tmp, e.Name()), dst); err != nil {
			rollback()
			return nil, eris.Wrapf(err, "output: move %s into place", e.Name())
		}
		moved = append(moved, dst)
	}
	return moved, nil
}
