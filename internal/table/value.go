package table

import (
	"strconv"
	"strings"
)

// Kind is the dynamic type of a cell value.
type Kind int

const (
	Missing Kind = iota
	String
	Number
	Bool
)

// Value is a single cell. The zero Value is Missing.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Flag bool
}

// Str returns a String value. Blank strings are Missing.
func Str(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{Kind: String, Str: s}
}

// Text returns a String value, keeping blank strings as present-but-empty text.
func Text(s string) Value { return Value{Kind: String, Str: s} }

// Num returns a Number value.
func Num(f float64) Value { return Value{Kind: Number, Num: f} }

// Boolean returns a Bool value.
func Boolean(b bool) Value { return Value{Kind: Bool, Flag: b} }

// IsMissing reports whether v holds no data.
func (v Value) IsMissing() bool { return v.Kind == Missing }

// String formats v for display and for text output fields. Missing is "".
func (v Value) String() string {
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Bool:
		if v.Flag {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}
