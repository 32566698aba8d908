// Package normalize canonicalizes administrative names into join keys.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/solar-suitability/internal/table"
)

var stripper = strings.NewReplacer(" ", "", "-", "", ".", "")

// Key lower-cases name, trims it and removes spaces, hyphens and periods.
// "North-24 Parganas" and "north 24 parganas" both become "north24parganas".
func Key(name string) string {
	return stripper.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// KeyValue is Key over a cell. Missing cells produce "".
func KeyValue(v table.Value) string {
	if v.IsMissing() {
		return ""
	}
	return Key(v.String())
}

// Clean returns the trimmed, title-cased display form of a name.
func Clean(name string) string {
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

// Fold compares two labels ignoring case and surrounding or repeated whitespace.
func Fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
