package master

import "github.com/sells-group/solar-suitability/internal/table"

// Record is the aggregated attribute row of one district.
type Record struct {
	Key    string
	Values table.Row
}

// Set is the master record set: one record per normalized district key, in ranking
// sheet order.
type Set struct {
	Columns []string
	Records []Record
	index   map[string]int
}

func newSet(cols []string) *Set {
	return &Set{Columns: cols, index: make(map[string]int)}
}

// Lookup returns the record for key.
func (s *Set) Lookup(key string) (Record, bool) {
	i, ok := s.index[key]
	if !ok {
		return Record{}, false
	}
	return s.Records[i], true
}

// Len returns the number of records.
func (s *Set) Len() int { return len(s.Records) }

// Col returns the index of column name, or -1.
func (s *Set) Col(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the named column of r, Missing when the column is unknown.
func (s *Set) Value(r Record, name string) table.Value {
	return r.Values.At(s.Col(name))
}

// IsNumeric reports whether every non-missing value of column c is a number.
func (s *Set) IsNumeric(c int) bool {
	for _, r := range s.Records {
		v := r.Values.At(c)
		if !v.IsMissing() && v.Kind != table.Number {
			return false
		}
	}
	return true
}

// Districts returns up to n district names, for diagnostics.
func (s *Set) Districts(n int) []string {
	c := s.Col(ColDistrict)
	out := make([]string, 0, n)
	for _, r := range s.Records {
		if len(out) == n {
			break
		}
		out = append(out, r.Values.At(c).String())
	}
	return out
}

func (s *Set) add(key string, values table.Row) bool {
	if _, dup := s.index[key]; dup {
		return false
	}
	s.index[key] = len(s.Records)
	s.Records = append(s.Records, Record{Key: key, Values: values})
	return true
}

func (s *Set) addColumn(name string) int {
	s.Columns = append(s.Columns, name)
	for i := range s.Records {
		s.Records[i].Values = append(s.Records[i].Values, table.Value{})
	}
	return len(s.Columns) - 1
}
