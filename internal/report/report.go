// Package report summarizes the distribution of suitability levels in a merged
// layer.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/sells-group/solar-suitability/internal/merge"
	"github.com/sells-group/solar-suitability/internal/suitability"
)

// Count is the number of features holding one value.
type Count struct {
	Value   string
	Count   int
	Percent float64
}

// Distribution is the value breakdown of one category field.
type Distribution struct {
	Category suitability.Category
	Counts   []Count
}

// Summary is the post-write verification report.
type Summary struct {
	Total         int
	Matched       int
	Community     int
	Distributions []Distribution
}

// Summarize counts each distinct value of the four category fields, most frequent
// first. Categories absent from the schema are skipped.
func Summarize(res *merge.Result) Summary {
	s := Summary{Total: len(res.Features), Matched: res.Matched}

	if flag := res.FieldIndex(merge.FieldCommunityFlag); flag >= 0 {
		for _, f := range res.Features {
			if v := f.Values.At(flag); v.Flag {
				s.Community++
			}
		}
	}

	for _, cat := range suitability.Categories() {
		idx := res.FieldIndex(cat.Field)
		if idx < 0 {
			continue
		}
		counts := make(map[string]int)
		for _, f := range res.Features {
			counts[f.Values.At(idx).String()]++
		}
		d := Distribution{Category: cat}
		for v, n := range counts {
			d.Counts = append(d.Counts, Count{Value: v, Count: n, Percent: percent(n, s.Total)})
		}
		sort.Slice(d.Counts, func(i, j int) bool {
			if d.Counts[i].Count != d.Counts[j].Count {
				return d.Counts[i].Count > d.Counts[j].Count
			}
			return d.Counts[i].Value < d.Counts[j].Value
		})
		s.Distributions = append(s.Distributions, d)
	}
	return s
}

// Print renders the summary as console tables.
func Print(w io.Writer, s Summary) {
	for _, d := range s.Distributions {
		fmt.Fprintf(w, "\n%s (%s)\n", d.Category.Field, d.Category.Name)
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Value", "Count", "Percent"})
		for _, c := range d.Counts {
			table.Append([]string{c.Value, strconv.Itoa(c.Count), fmt.Sprintf("%.1f%%", c.Percent)})
		}
		table.Render()
	}

	fmt.Fprintf(w, "\nCommunity SIP districts: %d\n", s.Community)
	fmt.Fprintf(w, "Matched features: %d\n", s.Matched)
	fmt.Fprintf(w, "Total features: %d\n", s.Total)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
