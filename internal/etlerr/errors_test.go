package etlerr

import (
	"errors"
	"os"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestKind_ThroughErisWrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"missing", eris.Wrap(NewMissingInput("sheet", "potential", nil), "pipeline: load"), KindMissingInput},
		{"schema", eris.Wrap(NewMissingColumns("potential", "Final Potential"), "master: build"), KindSchema},
		{"write", eris.Wrap(NewWriteError("out.shp", os.ErrPermission), "output: write"), KindWrite},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestMissingInputError_Unwrap(t *testing.T) {
	err := NewMissingInput("workbook", "book.xlsx", os.ErrNotExist)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), `workbook "book.xlsx"`)
}

func TestSchemaError_Message(t *testing.T) {
	err := NewMissingColumns("Community SIP", "State", "Final")
	assert.Equal(t, "schema: Community SIP: missing columns [State, Final]", err.Error())
}

func TestCoverageWarning(t *testing.T) {
	w := &CoverageWarning{Matched: 0, Total: 4}
	assert.Contains(t, w.Error(), "0/4")
	assert.Zero(t, w.Fraction())

	w = &CoverageWarning{Matched: 1, Total: 4, Minimum: 0.5}
	assert.InDelta(t, 0.25, w.Fraction(), 1e-9)
	assert.Contains(t, w.Error(), "25.0%")

	assert.Zero(t, (&CoverageWarning{}).Fraction())
}
