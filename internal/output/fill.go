// Package output fills missing values and persists the merged layer as a shapefile
// set.
package output

import (
	"github.com/sells-group/solar-suitability/internal/merge"
	"github.com/sells-group/solar-suitability/internal/suitability"
	"github.com/sells-group/solar-suitability/internal/table"
)

// NotAvailable fills missing text fields outside the category set.
const NotAvailable = "N/A"

// FillValue returns the value written for a missing cell of f.
func FillValue(f merge.Field) table.Value {
	switch f.Role {
	case merge.RoleCategory:
		return table.Text(suitability.NoData)
	case merge.RoleCommunity, merge.RoleName:
		return table.Text("")
	case merge.RoleCommunityFlag:
		return table.Boolean(false)
	}
	switch f.Kind {
	case merge.Number:
		return table.Num(0)
	case merge.Boolean:
		return table.Boolean(false)
	default:
		return table.Text(NotAvailable)
	}
}

// Fill replaces every missing value in res with its field's fill value and returns
// the number of cells filled.
func Fill(res *merge.Result) int {
	var filled int
	for i := range res.Features {
		values := res.Features[i].Values
		for j, f := range res.Fields {
			if values[j].IsMissing() {
				values[j] = FillValue(f)
				filled++
			}
		}
	}
	return filled
}
