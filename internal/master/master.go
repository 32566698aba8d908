// Package master builds the per-district master record set from the workbook sheets.
package master

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-suitability/internal/acronym"
	"github.com/sells-group/solar-suitability/internal/etlerr"
	"github.com/sells-group/solar-suitability/internal/normalize"
	"github.com/sells-group/solar-suitability/internal/table"
)

// Master record columns established by the builder.
const (
	ColDistrict    = "District"
	ColState       = "State"
	ColAdaptation  = "Adaptation_New"
	ColMitigation  = "Mitigation_New"
	ColReplacement = "Replacement_New"
	ColCommunity   = "Community_SIP"
	ColPotential   = "Overall_Potential"
)

// Source sheet headers.
const (
	communityFinal = "Final"
	potentialFinal = "Final Potential"
)

// Inputs are the sheets the master set is built from.
type Inputs struct {
	Ranking        *table.Table
	Recommendation *table.Table
	Community      *table.Table
	Potential      *table.Table
	Namer          acronym.Namer
}

// Build joins the sheets onto the ranking sheet. Every join is a left join on the
// normalized district key; the ranking sheet defines the set of districts.
func Build(in Inputs) (*Set, error) {
	log := zap.L().With(zap.String("component", "master"))

	set, err := fromRanking(in.Ranking)
	if err != nil {
		return nil, eris.Wrap(err, "master: ranking")
	}
	log.Info("ranking base loaded", zap.Int("districts", set.Len()))

	if err := joinRecommendation(set, in.Recommendation, in.Namer); err != nil {
		return nil, eris.Wrap(err, "master: recommendation")
	}
	log.Info("merged district recommendations",
		zap.Int("records", set.Len()),
		zap.Int("columns", len(set.Columns)),
	)

	if err := joinCommunity(set, in.Community); err != nil {
		return nil, eris.Wrap(err, "master: community")
	}
	if err := joinPotential(set, in.Potential); err != nil {
		return nil, eris.Wrap(err, "master: potential")
	}

	log.Info("master data prepared",
		zap.Int("records", set.Len()),
		zap.Int("columns", len(set.Columns)),
		zap.Strings("column_names", set.Columns),
	)
	return set, nil
}

func fromRanking(t *table.Table) (*Set, error) {
	if len(t.Columns) < 4 {
		return nil, &etlerr.SchemaError{
			Table:   t.Name,
			Columns: t.Columns,
			Reason:  "ranking sheet needs a district column and three category columns",
		}
	}
	if len(t.Columns) > 4 {
		zap.L().Warn("master: ignoring extra ranking columns", zap.Strings("columns", t.Columns[4:]))
	}

	set := newSet([]string{ColDistrict, ColAdaptation, ColMitigation, ColReplacement})
	var blank, dupes int
	for _, row := range t.Rows {
		key := normalize.KeyValue(row.At(0))
		if key == "" {
			blank++
			continue
		}
		values := table.Row{row.At(0), row.At(1), row.At(2), row.At(3)}
		if !set.add(key, values) {
			dupes++
		}
	}
	warnSkipped(t.Name, blank, dupes)
	return set, nil
}

func joinRecommendation(set *Set, t *table.Table, namer acronym.Namer) error {
	idx, err := t.Require(ColDistrict)
	if err != nil {
		return err
	}
	names := namer.Assign(t.Columns)
	cols := make([]int, len(names))
	for i := range names {
		cols[i] = i
	}
	leftJoin(set, t, idx[0], cols, names, table.Value{})
	return nil
}

func joinCommunity(set *Set, t *table.Table) error {
	idx, err := t.Require(ColState, ColDistrict, communityFinal)
	if err != nil {
		return err
	}
	leftJoin(set, t, idx[1], []int{idx[2]}, []string{ColCommunity}, table.Text(""))
	return nil
}

func joinPotential(set *Set, t *table.Table) error {
	idx, err := t.Require(ColDistrict, potentialFinal)
	if err != nil {
		return err
	}
	leftJoin(set, t, idx[0], []int{idx[1]}, []string{ColPotential}, table.Value{})
	return nil
}

// leftJoin copies columns cols of t, under names, onto every record of set whose key
// matches the normalized value of t's key column. Names already present in set are
// dropped so the earlier column wins. Unmatched records receive fill.
func leftJoin(set *Set, t *table.Table, keyCol int, cols []int, names []string, fill table.Value) {
	log := zap.L().With(zap.String("component", "master"), zap.String("sheet", t.Name))

	byKey := make(map[string]int, t.Len())
	var blank, dupes int
	for r, row := range t.Rows {
		key := normalize.KeyValue(row.At(keyCol))
		if key == "" {
			blank++
			continue
		}
		if _, ok := byKey[key]; ok {
			dupes++
			continue
		}
		byKey[key] = r
	}
	warnSkipped(t.Name, blank, dupes)

	type target struct{ src, dst int }
	var targets []target
	var dropped []string
	for i, name := range names {
		if set.Col(name) >= 0 {
			dropped = append(dropped, name)
			continue
		}
		targets = append(targets, target{src: cols[i], dst: set.addColumn(name)})
	}
	if len(dropped) > 0 {
		log.Debug("dropped columns already present in master", zap.Strings("columns", dropped))
	}

	var matched int
	for i := range set.Records {
		rec := &set.Records[i]
		r, ok := byKey[rec.Key]
		if ok {
			matched++
		}
		for _, tg := range targets {
			v := fill
			if ok {
				if src := t.Cell(r, tg.src); !src.IsMissing() {
					v = src
				}
			}
			rec.Values[tg.dst] = v
		}
	}
	log.Debug("joined sheet",
		zap.Int("matched", matched),
		zap.Int("records", set.Len()),
		zap.Int("added_columns", len(targets)),
	)
}

func warnSkipped(sheet string, blank, dupes int) {
	if blank > 0 {
		zap.L().Warn("master: skipped rows without a district", zap.String("sheet", sheet), zap.Int("rows", blank))
	}
	if dupes > 0 {
		zap.L().Warn("master: duplicate districts, kept first", zap.String("sheet", sheet), zap.Int("rows", dupes))
	}
}
