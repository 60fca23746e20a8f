package xlrecord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidReference is returned for malformed column letters or cell references.
var ErrInvalidReference = errors.New("invalid cell reference")

// CellRef represents a single cell position in a worksheet.
type CellRef struct {
	Sheet string // sheet name (empty = caller's sheet)
	Row   int    // 0-based row index
	Col   int    // 0-based column index
}

// NewCellRef creates a CellRef with explicit sheet, row, col.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// ParseCellRef parses a cell reference string like "A1", "Sheet1!B5", or "$A$1".
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, fmt.Errorf("%w: empty", ErrInvalidReference)
	}

	var sheet string
	cellPart := s
	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		sheet = strings.Trim(s[:idx], "'")
		cellPart = s[idx+1:]
	}

	cellPart = strings.ReplaceAll(cellPart, "$", "")
	col, row, err := parseCellName(cellPart)
	if err != nil {
		return CellRef{}, fmt.Errorf("%w %q: %v", ErrInvalidReference, s, err)
	}
	return CellRef{Sheet: sheet, Row: row, Col: col}, nil
}

// parseCellName parses "A1" into col=0, row=0.
func parseCellName(name string) (col, row int, err error) {
	i := 0
	for i < len(name) && isAlpha(name[i]) {
		i++
	}
	if i == 0 || i == len(name) {
		return 0, 0, fmt.Errorf("invalid cell name: %q", name)
	}

	col, err = NameToCol(name[:i])
	if err != nil {
		return 0, 0, err
	}
	rowNum, err := strconv.Atoi(name[i:])
	if err != nil || rowNum < 1 || strings.ContainsAny(name[i:], "+-") {
		return 0, 0, fmt.Errorf("invalid row in cell name: %q", name)
	}
	return col, rowNum - 1, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String formats the CellRef as "Sheet1!A1" or "A1" if no sheet.
func (c CellRef) String() string {
	if c.Sheet != "" {
		return c.Sheet + "!" + c.CellName()
	}
	return c.CellName()
}

// CellName returns just the cell part like "A1" without sheet name.
func (c CellRef) CellName() string {
	return ColToName(c.Col) + strconv.Itoa(c.Row+1)
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA"
func ColToName(col int) string {
	result := ""
	col++
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, fmt.Errorf("%w: empty column name", ErrInvalidReference)
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidReference, name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// RowPosition joins a column name and a 1-based row into a position like "B7".
func RowPosition(col string, row int) (string, error) {
	idx, err := NameToCol(col)
	if err != nil {
		return "", err
	}
	if row < 1 {
		return "", fmt.Errorf("%w: row %d in column %s", ErrInvalidReference, row, col)
	}
	return NewCellRef("", row-1, idx).CellName(), nil
}
