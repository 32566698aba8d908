// Package workbook loads the named sheets of the suitability workbook into tables.
package workbook

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/solar-suitability/internal/etlerr"
	"github.com/sells-group/solar-suitability/internal/table"
)

// SheetNames names every sheet the preparation run requires.
type SheetNames struct {
	Ranking        string `yaml:"ranking" mapstructure:"ranking"`
	Recommendation string `yaml:"recommendation" mapstructure:"recommendation"`
	Adaptation     string `yaml:"adaptation" mapstructure:"adaptation"`
	Mitigation     string `yaml:"mitigation" mapstructure:"mitigation"`
	Replacement    string `yaml:"replacement" mapstructure:"replacement"`
	Community      string `yaml:"community" mapstructure:"community"`
	Acronym        string `yaml:"acronym" mapstructure:"acronym"`
	Potential      string `yaml:"potential" mapstructure:"potential"`
	All            string `yaml:"all" mapstructure:"all"`
}

// List returns the configured names in load order.
func (n SheetNames) List() []string {
	return []string{
		n.Ranking, n.Recommendation, n.Adaptation, n.Mitigation, n.Replacement,
		n.Community, n.Acronym, n.Potential, n.All,
	}
}

// Sheets holds every loaded sheet.
type Sheets struct {
	Ranking        *table.Table
	Recommendation *table.Table
	Adaptation     *table.Table
	Mitigation     *table.Table
	Replacement    *table.Table
	Community      *table.Table
	Acronym        *table.Table
	Potential      *table.Table
	All            *table.Table
}

// Workbook is an opened xlsx file.
type Workbook struct {
	path string
	file *xlsx.File
}

// Open reads the workbook at path.
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, etlerr.NewMissingInput("workbook", path, err)
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, etlerr.NewMissingInput("workbook", path, eris.Wrap(err, "xlsx: open file"))
	}
	return &Workbook{path: path, file: f}, nil
}

// SheetNames lists the sheets present in the workbook in file order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.file.Sheets))
	for _, s := range w.file.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// Sheet converts the named sheet into a table. The first non-blank row is the header.
func (w *Workbook) Sheet(name string) (*table.Table, error) {
	sheet, ok := w.file.Sheet[name]
	if !ok {
		return nil, etlerr.NewMissingInput("sheet", name, nil)
	}
	return sheetToTable(name, sheet), nil
}

// LoadAll loads every sheet in names. Missing sheets are collected so the error
// names all of them at once; nothing is returned unless every sheet loaded.
func (w *Workbook) LoadAll(names SheetNames) (*Sheets, error) {
	var missing []string
	load := func(name string) *table.Table {
		t, err := w.Sheet(name)
		if err != nil {
			missing = append(missing, name)
			return nil
		}
		return t
	}

	s := &Sheets{
		Ranking:        load(names.Ranking),
		Recommendation: load(names.Recommendation),
		Adaptation:     load(names.Adaptation),
		Mitigation:     load(names.Mitigation),
		Replacement:    load(names.Replacement),
		Community:      load(names.Community),
		Acronym:        load(names.Acronym),
		Potential:      load(names.Potential),
		All:            load(names.All),
	}
	if len(missing) > 0 {
		zap.L().Debug("workbook: sheets present", zap.Strings("sheets", w.SheetNames()))
		return nil, etlerr.NewMissingInput("sheet", strings.Join(missing, ", "), nil)
	}
	return s, nil
}

func sheetToTable(name string, sheet *xlsx.Sheet) *table.Table {
	t := &table.Table{Name: name}

	header := -1
	for i, row := range sheet.Rows {
		if row == nil || blankRow(row) {
			continue
		}
		if header < 0 {
			header = i
			t.Columns = headerNames(row)
			continue
		}
		t.Rows = append(t.Rows, rowToValues(row, len(t.Columns)))
	}

	// Trailing formatted-but-empty rows show up as blank records.
	for len(t.Rows) > 0 && allMissing(t.Rows[len(t.Rows)-1]) {
		t.Rows = t.Rows[:len(t.Rows)-1]
	}
	return t
}

func headerNames(row *xlsx.Row) []string {
	names := make([]string, len(row.Cells))
	seen := make(map[string]int, len(row.Cells))
	for i, cell := range row.Cells {
		name := cell.String()
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	// Drop trailing unnamed columns: they carry no data.
	for len(names) > 0 && strings.HasPrefix(names[len(names)-1], "Unnamed: ") {
		names = names[:len(names)-1]
	}
	return names
}

func rowToValues(row *xlsx.Row, width int) table.Row {
	n := len(row.Cells)
	if n > width {
		n = width
	}
	out := make(table.Row, width)
	for i := 0; i < n; i++ {
		out[i] = cellValue(row.Cells[i])
	}
	return out
}

func cellValue(cell *xlsx.Cell) table.Value {
	if cell == nil {
		return table.Value{}
	}
	switch cell.Type() {
	case xlsx.CellTypeNumeric:
		if f, err := cell.Float(); err == nil {
			return table.Num(f)
		}
	case xlsx.CellTypeBool:
		return table.Boolean(cell.Bool())
	}
	return table.Str(cell.String())
}

func blankRow(row *xlsx.Row) bool {
	for _, c := range row.Cells {
		if c != nil && strings.TrimSpace(c.String()) != "" {
			return false
		}
	}
	return true
}

func allMissing(r table.Row) bool {
	for _, v := range r {
		if !v.IsMissing() {
			return false
		}
	}
	return true
}
