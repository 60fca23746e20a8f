package xlrecord

import "fmt"

// Grid is an in-memory CellAccessor. It is handy for tests and for feeding
// rows that did not come from a workbook (CSV, query results).
type Grid struct {
	sheets map[string]map[CellRef]any
}

// NewGrid creates an empty Grid.
func NewGrid() *Grid {
	return &Grid{sheets: make(map[string]map[CellRef]any)}
}

// Set stores a raw value at position ("B3") and returns the Grid for chaining.
// It panics on a malformed position, like regexp.MustCompile.
func (g *Grid) Set(sheet, position string, value any) *Grid {
	ref, err := ParseCellRef(position)
	if err != nil {
		panic(fmt.Sprintf("xlrecord: grid position: %v", err))
	}
	g.put(sheet, ref, value)
	return g
}

// SetRow stores values in columns A, B, C... of the 1-based row.
func (g *Grid) SetRow(sheet string, row int, values ...any) *Grid {
	for col, v := range values {
		g.put(sheet, NewCellRef("", row-1, col), v)
	}
	return g
}

func (g *Grid) put(sheet string, ref CellRef, value any) {
	ref.Sheet = ""
	cells, ok := g.sheets[sheet]
	if !ok {
		cells = make(map[CellRef]any)
		g.sheets[sheet] = cells
	}
	if value == nil {
		delete(cells, ref)
		return
	}
	cells[ref] = value
}

// ReadCell implements CellAccessor. Unknown sheets are an error; empty cells are nil.
func (g *Grid) ReadCell(sheet, position string) (any, error) {
	cells, ok := g.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s does not exist", sheet)
	}
	ref, err := ParseCellRef(position)
	if err != nil {
		return nil, err
	}
	ref.Sheet = ""
	return cells[ref], nil
}

// WriteCell implements CellAccessor.
func (g *Grid) WriteCell(sheet, position string, value Scalar) error {
	ref, err := ParseCellRef(position)
	if err != nil {
		return err
	}
	if value.IsNull() {
		g.put(sheet, ref, "")
		return nil
	}
	g.put(sheet, ref, value)
	return nil
}
