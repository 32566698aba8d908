// Package suitability defines the four suitability categories, their output field
// names and the enumerated levels each category may take.
package suitability

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/solar-suitability/internal/normalize"
)

// NoData fills a category field for a feature with no matching master record.
const NoData = "No Data"

// LegendWidth is the length at which the map legend cuts long General SI labels.
const LegendWidth = 50

// CommunityMarker is the Community SIP sheet value that flags a community district.
const CommunityMarker = "Community SIP"

// Category is one suitability classification dimension.
type Category struct {
	Name   string   // display name
	Field  string   // output field name
	Source string   // master record column
	Levels []string // enumerated values, in legend order
}

var (
	Adaptation = Category{
		Name:   "Adaptation",
		Field:  "Adapt",
		Source: "Adaptation_New",
		Levels: []string{
			"Less Suitable",
			"Moderately Suitable",
			"Highly Suitable",
			"Very Highly Suitable",
		},
	}
	Mitigation = Category{
		Name:   "Mitigation",
		Field:  "Mitigate",
		Source: "Mitigation_New",
		Levels: []string{
			"Less Suitable",
			"Moderately Suitable",
			"Highly Suitable",
			"Very High Suitable",
		},
	}
	Replacement = Category{
		Name:   "Replacement",
		Field:  "Replace",
		Source: "Replacement_New",
		Levels: []string{
			"Less Suitable",
			"Moderately Suitable",
			"Highly Suitable",
			"Highly Suitable (On Grid)",
			"Highly Suitable (Community Wells)",
			"Highly Suitable (On Grid Community Wells)",
		},
	}
	General = Category{
		Name:   "General SI",
		Field:  "General_SI",
		Source: "Overall_Potential",
		Levels: []string{
			"Less Suitable",
			"Moderately Suitable",
			"Highly Suitable (On Grid Replacement)",
			"Highly Suitable (On Grid Community Wells)",
			"Highly Suitable (Mitigation + On Grid Replacement)",
			"Highly Suitable (Mitigation + On Grid Community We",
			"Highly Suitable (Mitigation)",
			"Highly Suitable (Adaptation + On Grid Replacement)",
			"Highly Suitable (Adaptation + On Grid Community We",
			"Highly Suitable (Adaptation + Mitigation + On Grid",
			"Highly Suitable (Adaptation + Mitigation)",
			"Highly Suitable (Adaptation )",
			"Highly Suitable",
		},
	}
)

// Categories lists the four categories in report order.
func Categories() []Category {
	return []Category{Adaptation, Mitigation, Replacement, General}
}

// ByField returns the category whose output field is name.
func ByField(name string) (Category, bool) {
	for _, c := range Categories() {
		if c.Field == name {
			return c, true
		}
	}
	return Category{}, false
}

// Canonical maps v onto the enumerated spelling of a level, ignoring case and
// whitespace differences, including a space before a closing parenthesis. A label
// longer than LegendWidth matches the level that is its cut form. NoData is always
// accepted. The second result is false when v is not a known level.
func (c Category) Canonical(v string) (string, bool) {
	if v == NoData {
		return v, true
	}
	want := levelKey(v)
	for _, lvl := range c.Levels {
		if levelKey(lvl) == want {
			return lvl, true
		}
	}

	folded := []rune(normalize.Fold(v))
	if len(folded) <= LegendWidth {
		return v, false
	}
	cut := levelKey(string(folded[:LegendWidth]))
	for _, lvl := range c.Levels {
		if utf8.RuneCountInString(lvl) == LegendWidth && levelKey(lvl) == cut {
			return lvl, true
		}
	}
	return v, false
}

var parenSpace = strings.NewReplacer("( ", "(", " )", ")")

func levelKey(s string) string {
	return parenSpace.Replace(normalize.Fold(s))
}
