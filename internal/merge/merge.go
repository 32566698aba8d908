// Package merge attaches master records to boundary features and assembles the
// output attribute schema.
package merge

import (
	"slices"

	"github.com/jonas-p/go-shp"
	"go.uber.org/zap"

	"github.com/sells-group/solar-suitability/internal/boundary"
	"github.com/sells-group/solar-suitability/internal/etlerr"
	"github.com/sells-group/solar-suitability/internal/master"
	"github.com/sells-group/solar-suitability/internal/normalize"
	"github.com/sells-group/solar-suitability/internal/suitability"
	"github.com/sells-group/solar-suitability/internal/table"
)

const sampleSize = 5

// Options configures the merge.
type Options struct {
	MatchColumns   []string // boundary columns tried in order, finest level first
	MinCoverage    float64  // fraction below which a coverage warning is logged
	FieldNameLimit int      // 0 disables the check
	StrictLevels   bool     // unknown category values fail the merge instead of becoming NoData
}

// Feature is a boundary feature with its merged attribute values, aligned with
// Result.Fields.
type Feature struct {
	Shape   shp.Shape
	Values  table.Row
	Matched bool
}

// Result is the merged layer.
type Result struct {
	Fields      []Field
	Features    []Feature
	MatchColumn string
	Matched     int
	Coverage    *etlerr.CoverageWarning // nil when coverage is acceptable
}

// FieldIndex returns the index of the named output field, or -1.
func (r *Result) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Value returns field name of feature i.
func (r *Result) Value(i int, name string) table.Value {
	return r.Features[i].Values.At(r.FieldIndex(name))
}

// MatchColumn returns the first of candidates present in the layer.
func MatchColumn(layer *boundary.Layer, candidates []string) (string, error) {
	for _, c := range candidates {
		if layer.FieldIndex(c) >= 0 {
			return c, nil
		}
	}
	return "", &etlerr.SchemaError{
		Table:   layer.Path,
		Columns: candidates,
		Reason:  "no district name column found in boundary layer",
	}
}

// Merge left-joins set onto every feature of layer. Every feature is kept.
func Merge(layer *boundary.Layer, set *master.Set, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "merge"))

	col, err := MatchColumn(layer, opts.MatchColumns)
	if err != nil {
		return nil, err
	}
	log.Info("matching boundary features", zap.String("column", col))

	fields, sources, err := buildSchema(layer, set, opts.FieldNameLimit)
	if err != nil {
		return nil, err
	}

	res := &Result{Fields: fields, MatchColumn: col, Features: make([]Feature, layer.Len())}
	adaptCol := set.Col(master.ColAdaptation)
	communityIdx := indexOf(fields, FieldCommunity)
	flagIdx := indexOf(fields, FieldCommunityFlag)
	var unmatched []string

	for i, bf := range layer.Features {
		rec, ok := set.Lookup(normalize.Key(layer.Attr(i, col)))
		values := make(table.Row, len(fields))
		for j, f := range fields {
			switch {
			case f.Role == RoleName:
				values[j] = table.Text(bf.Attrs[sources[j]])
			case f.Role == RoleCommunityFlag:
				// Computed below once Comm_SIP is known.
			case ok:
				values[j] = rec.Values.At(sources[j])
				if f.Role == RoleCategory && !values[j].IsMissing() {
					values[j] = table.Text(values[j].String())
				}
			}
		}
		if flagIdx >= 0 {
			comm := values.At(communityIdx)
			values[flagIdx] = table.Boolean(!comm.IsMissing() && comm.String() == suitability.CommunityMarker)
		}

		matched := ok && !rec.Values.At(adaptCol).IsMissing()
		if matched {
			res.Matched++
		} else if len(unmatched) < sampleSize {
			unmatched = append(unmatched, normalize.Clean(layer.Attr(i, col)))
		}
		res.Features[i] = Feature{Shape: bf.Shape, Values: values, Matched: matched}
	}

	if err := canonicalizeLevels(res, opts.StrictLevels); err != nil {
		return nil, err
	}

	log.Info("matched features",
		zap.Int("matched", res.Matched),
		zap.Int("features", layer.Len()),
		zap.Float64("fraction", fraction(res.Matched, layer.Len())),
	)
	if res.Matched == 0 || float64(res.Matched) < opts.MinCoverage*float64(layer.Len()) {
		res.Coverage = &etlerr.CoverageWarning{Matched: res.Matched, Total: layer.Len(), Minimum: opts.MinCoverage}
		log.Warn(res.Coverage.Error(),
			zap.Strings("sample_boundary_districts", sampleColumn(layer, col)),
			zap.Strings("sample_master_districts", set.Districts(sampleSize)),
			zap.Strings("sample_unmatched", unmatched),
		)
	} else if len(unmatched) > 0 {
		log.Debug("sample unmatched features", zap.Strings("districts", unmatched))
	}
	return res, nil
}

// buildSchema lays out the output fields: boundary name columns, the core rename
// table, the community flag, then every remaining master column. A name already
// taken keeps its first definition. It returns, per field, the source column index
// (boundary attribute or master column).
func buildSchema(layer *boundary.Layer, set *master.Set, limit int) ([]Field, []int, error) {
	log := zap.L().With(zap.String("component", "merge"))
	var fields []Field
	var sources []int
	taken := make(map[string]string)

	add := func(f Field, src int) {
		if prev, dup := taken[f.Name]; dup {
			log.Warn("duplicate output field, keeping first",
				zap.String("field", f.Name),
				zap.String("kept_source", prev),
				zap.String("dropped_source", f.Source),
			)
			return
		}
		taken[f.Name] = f.Source
		fields = append(fields, f)
		sources = append(sources, src)
	}

	for i, def := range layer.Fields {
		d := def
		name := boundary.FieldName(def)
		add(Field{Name: name, Source: name, Kind: Text, Role: RoleName, Def: &d}, i)
	}

	for _, c := range coreFields() {
		if src := set.Col(c.source); src >= 0 {
			add(Field{Name: c.name, Source: c.source, Kind: Text, Role: c.role}, src)
		}
	}
	if _, ok := taken[FieldCommunity]; ok {
		add(Field{Name: FieldCommunityFlag, Source: master.ColCommunity, Kind: Boolean, Role: RoleCommunityFlag}, -1)
	}

	claimed := claimedSources()
	var extras []string
	for src, name := range set.Columns {
		if claimed[name] {
			continue
		}
		kind := Text
		if set.IsNumeric(src) {
			kind = Number
		}
		add(Field{Name: name, Source: name, Kind: kind, Role: RoleExtra}, src)
		extras = append(extras, name)
	}
	log.Info("added district recommendation columns", zap.Int("count", len(extras)), zap.Strings("columns", extras))

	var tooLong []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return nil, nil, &etlerr.SchemaError{Columns: []string{f.Name}, Reason: "duplicate output field"}
		}
		seen[f.Name] = true
		if limit > 0 && f.Role != RoleName && len(f.Name) > limit {
			tooLong = append(tooLong, f.Name)
		}
	}
	if len(tooLong) > 0 {
		return nil, nil, &etlerr.SchemaError{Columns: tooLong, Reason: "output field names exceed the field name limit"}
	}
	return fields, sources, nil
}

// canonicalizeLevels rewrites category values to their enumerated spelling. Values
// outside the enumeration fail the merge when strict, otherwise they become NoData.
func canonicalizeLevels(res *Result, strict bool) error {
	for _, cat := range suitability.Categories() {
		idx := res.FieldIndex(cat.Field)
		if idx < 0 {
			continue
		}
		var unknown []string
		for i := range res.Features {
			v := res.Features[i].Values[idx]
			if v.IsMissing() {
				continue
			}
			lvl, ok := cat.Canonical(v.Str)
			if !ok {
				if !slices.Contains(unknown, lvl) {
					unknown = append(unknown, lvl)
				}
				lvl = suitability.NoData
			}
			res.Features[i].Values[idx] = table.Text(lvl)
		}
		if len(unknown) == 0 {
			continue
		}
		if strict {
			return &etlerr.SchemaError{Table: cat.Field, Columns: unknown, Reason: "unknown suitability levels"}
		}
		zap.L().Warn("merge: unknown suitability levels replaced with No Data", zap.String("field", cat.Field), zap.Strings("values", unknown))
	}
	return nil
}

func sampleColumn(layer *boundary.Layer, col string) []string {
	var out []string
	for i := 0; i < layer.Len() && i < sampleSize; i++ {
		out = append(out, layer.Attr(i, col))
	}
	return out
}

func indexOf(fields []Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
