// Package acronym maps human-readable column labels onto short output field names.
package acronym

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/solar-suitability/internal/normalize"
	"github.com/sells-group/solar-suitability/internal/table"
)

// Default column headers of the acronym sheet.
const (
	OriginalColumn = "Original"
	ShortColumn    = "GIS Raw data layer"
)

// Lookup maps an original label to its short field name.
type Lookup struct {
	exact  map[string]string
	folded map[string]string
	order  []string
}

// Build reads (original, short) pairs from t. Rows where either side is blank are
// skipped. The first mapping for a label wins.
func Build(t *table.Table, originalCol, shortCol string) (*Lookup, error) {
	idx, err := t.Require(originalCol, shortCol)
	if err != nil {
		return nil, err
	}

	l := &Lookup{exact: make(map[string]string), folded: make(map[string]string)}
	var skipped, dupes int
	for _, row := range t.Rows {
		orig, short := row.At(idx[0]), row.At(idx[1])
		if orig.IsMissing() || short.IsMissing() {
			skipped++
			continue
		}
		label := orig.String()
		if _, ok := l.exact[label]; ok {
			dupes++
			continue
		}
		name := strings.TrimSpace(short.String())
		l.exact[label] = name
		l.order = append(l.order, label)
		if _, ok := l.folded[normalize.Fold(label)]; !ok {
			l.folded[normalize.Fold(label)] = name
		}
	}

	zap.L().Debug("acronym: lookup built",
		zap.Int("mappings", len(l.exact)),
		zap.Int("skipped", skipped),
		zap.Int("duplicates", dupes),
	)
	return l, nil
}

// Get returns the short name for label. An exact header match is preferred over a
// case/whitespace-insensitive one.
func (l *Lookup) Get(label string) (string, bool) {
	if l == nil {
		return "", false
	}
	if s, ok := l.exact[label]; ok {
		return s, true
	}
	s, ok := l.folded[normalize.Fold(label)]
	return s, ok
}

// Len returns the number of mappings.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.exact)
}

// Labels returns mapped labels in sheet order.
func (l *Lookup) Labels() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.order...)
}

// Namer applies the short-name policy: acronym if mapped, otherwise the label cut to
// Limit bytes when Truncate is set.
type Namer struct {
	Lookup   *Lookup
	Limit    int
	Truncate bool
	Keep     []string // labels that keep their name, e.g. join keys
}

// Name returns the short name for a single label without collision handling.
func (n Namer) Name(label string) string {
	for _, k := range n.Keep {
		if label == k {
			return label
		}
	}
	if s, ok := n.Lookup.Get(label); ok {
		return s
	}
	if n.Truncate && n.Limit > 0 {
		return truncate(label, n.Limit)
	}
	return label
}

// Assign names every label of a header. When two labels end up with the same name the
// later one gets a numeric suffix that still fits the limit, and a warning is logged so
// distinct data is never dropped silently.
func (n Namer) Assign(labels []string) []string {
	log := zap.L().With(zap.String("component", "acronym"))
	out := make([]string, len(labels))
	taken := make(map[string]bool, len(labels))

	for i, label := range labels {
		name := n.Name(label)
		switch {
		case name != label && isMapped(n.Lookup, label):
			log.Info("mapped column", zap.String("from", label), zap.String("to", name))
		case name != label:
			log.Info("truncated column", zap.String("from", label), zap.String("to", name))
		}

		if taken[name] {
			unique := n.suffixed(name, taken)
			log.Warn("short name collision, renamed",
				zap.String("label", label),
				zap.String("collides_with", name),
				zap.String("renamed_to", unique),
			)
			name = unique
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func (n Namer) suffixed(name string, taken map[string]bool) string {
	for i := 1; ; i++ {
		suffix := strconv.Itoa(i)
		base := name
		if n.Limit > 0 {
			base = truncate(name, n.Limit-len(suffix))
		}
		if cand := base + suffix; !taken[cand] {
			return cand
		}
	}
}

func isMapped(l *Lookup, label string) bool {
	_, ok := l.Get(label)
	return ok
}

// truncate cuts s to at most limit bytes, the unit of the DBF field name limit,
// without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
