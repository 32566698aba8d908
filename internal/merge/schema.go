package merge

import (
	"github.com/jonas-p/go-shp"

	"github.com/sells-group/solar-suitability/internal/master"
	"github.com/sells-group/solar-suitability/internal/suitability"
)

// FieldKind is the storage type of an output field.
type FieldKind int

const (
	Text FieldKind = iota
	Number
	Boolean
)

func (k FieldKind) String() string {
	switch k {
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return "text"
	}
}

// Role tells the output writer which missing-value policy applies to a field.
type Role int

const (
	RoleName Role = iota
	RoleCategory
	RoleCommunity
	RoleCommunityFlag
	RoleCore
	RoleExtra
)

// Field is one attribute column of the merged layer.
type Field struct {
	Name   string
	Source string
	Kind   FieldKind
	Role   Role
	Def    *shp.Field // original DBF definition of a boundary name column
}

// Output names of the fields that are not suitability categories.
const (
	FieldCommunity     = "Comm_SIP"
	FieldCommunityFlag = "Has_CommSI"
	FieldState         = "State_Name"
	FieldDistrict      = "Dist_Name"
)

type coreField struct {
	source string
	name   string
	role   Role
}

// coreFields is the fixed rename table applied before any recommendation column.
func coreFields() []coreField {
	var out []coreField
	for _, c := range suitability.Categories() {
		out = append(out, coreField{source: c.Source, name: c.Field, role: RoleCategory})
	}
	return append(out,
		coreField{source: master.ColCommunity, name: FieldCommunity, role: RoleCommunity},
		coreField{source: master.ColState, name: FieldState, role: RoleCore},
		coreField{source: master.ColDistrict, name: FieldDistrict, role: RoleCore},
	)
}

// claimedSources are master columns consumed by the core table; they never reappear
// as recommendation columns.
func claimedSources() map[string]bool {
	m := make(map[string]bool)
	for _, c := range coreFields() {
		m[c.source] = true
	}
	return m
}
