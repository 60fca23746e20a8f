package xlrecord

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Workbook implements CellAccessor on an excelize file and exposes the sheet
// operations report code needs. Do not open the same file twice in one unit
// of work; a Workbook is not safe for concurrent use.
type Workbook struct {
	file     *excelize.File
	date1904 bool
}

// NewWorkbook wraps an already opened excelize file.
func NewWorkbook(f *excelize.File) *Workbook {
	wb := &Workbook{file: f}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb
}

// Open opens an xlsx file. New documents are created by opening a template.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	return NewWorkbook(f), nil
}

// OpenReader opens an xlsx document from r.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook reader: %w", err)
	}
	return NewWorkbook(f), nil
}

// File returns the underlying excelize file for advanced operations.
func (wb *Workbook) File() *excelize.File {
	return wb.file
}

// ReadCell implements CellAccessor. It returns nil for empty cells, string,
// bool, int64 or decimal.Decimal for plain values and time.Time for numbers
// carrying a date or time format.
func (wb *Workbook) ReadCell(sheet, position string) (any, error) {
	typ, err := wb.file.GetCellType(sheet, position)
	if err != nil {
		return nil, err
	}
	raw, err := wb.file.GetCellValue(sheet, position, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "TRUE"), nil
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString, excelize.CellTypeFormula, excelize.CellTypeError:
		return raw, nil
	case excelize.CellTypeDate:
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return raw, nil
		}
		return t, nil
	}

	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw, nil
	}
	if wb.isDateCell(sheet, position) {
		f, _ := d.Float64()
		t, err := excelize.ExcelDateToTime(f, wb.date1904)
		if err == nil {
			return t, nil
		}
	}
	if d.IsInteger() && d.Abs().LessThan(decimal.New(1, 18)) {
		return d.IntPart(), nil
	}
	return d, nil
}

// isDateCell reports whether the cell's number format renders a date or time.
func (wb *Workbook) isDateCell(sheet, position string) bool {
	styleID, err := wb.file.GetCellStyle(sheet, position)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := wb.file.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormat(*style.CustomNumFmt)
	}
	switch {
	case style.NumFmt >= 14 && style.NumFmt <= 22,
		style.NumFmt >= 27 && style.NumFmt <= 36,
		style.NumFmt >= 45 && style.NumFmt <= 47,
		style.NumFmt >= 50 && style.NumFmt <= 58:
		return true
	}
	return false
}

// isDateFormat looks for date/time tokens outside quotes and brackets.
func isDateFormat(format string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(format); i++ {
		ch := format[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '\\':
			i++
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		case strings.IndexByte("yYdDhHsS", ch) >= 0:
			return true
		case ch == 'm' || ch == 'M':
			return true
		}
	}
	return false
}

// WriteCell implements CellAccessor. Null writes an empty string.
func (wb *Workbook) WriteCell(sheet, position string, value Scalar) error {
	switch value.Kind() {
	case NullKind:
		return wb.file.SetCellStr(sheet, position, "")
	case StringKind:
		s, _ := value.Str()
		return wb.file.SetCellStr(sheet, position, s)
	case NumberKind:
		n, _ := value.Num()
		if n.IsInteger() && n.Abs().LessThan(decimal.New(1, 15)) {
			return wb.file.SetCellValue(sheet, position, n.IntPart())
		}
		f, _ := n.Float64()
		return wb.file.SetCellValue(sheet, position, f)
	case BoolKind:
		b, _ := value.Boolean()
		return wb.file.SetCellBool(sheet, position, b)
	case DateKind:
		t, _ := value.Time()
		return wb.file.SetCellValue(sheet, position, t)
	default:
		return wb.file.SetCellValue(sheet, position, value.Raw())
	}
}

// TemplateCell points at a cell whose style, validation and formula are
// cloned onto a written cell.
type TemplateCell struct {
	Sheet    string
	Position string
}

// SetCell writes value and, when tmpl is given, copies the template cell's
// style and data validation. A Null value marks a formula slot: the cell is
// emptied and the template's formula is copied with its relative references
// moved by the offset between the two cells.
func (wb *Workbook) SetCell(sheet, position string, value Scalar, tmpl *TemplateCell) error {
	if err := wb.WriteCell(sheet, position, value); err != nil {
		return fmt.Errorf("set cell %s!%s: %w", sheet, position, err)
	}
	if tmpl == nil {
		return nil
	}
	if value.IsNull() {
		if err := wb.copyFormula(sheet, position, tmpl); err != nil {
			return err
		}
	}
	styleID, err := wb.file.GetCellStyle(tmpl.Sheet, tmpl.Position)
	if err != nil {
		return fmt.Errorf("read template style %s!%s: %w", tmpl.Sheet, tmpl.Position, err)
	}
	if err := wb.file.SetCellStyle(sheet, position, position, styleID); err != nil {
		return fmt.Errorf("set style %s!%s: %w", sheet, position, err)
	}
	return wb.copyValidations(sheet, position, tmpl)
}

func (wb *Workbook) copyFormula(sheet, position string, tmpl *TemplateCell) error {
	formula, err := wb.file.GetCellFormula(tmpl.Sheet, tmpl.Position)
	if err != nil {
		return fmt.Errorf("read template formula %s!%s: %w", tmpl.Sheet, tmpl.Position, err)
	}
	if formula == "" {
		return nil
	}
	from, err := ParseCellRef(tmpl.Position)
	if err != nil {
		return err
	}
	to, err := ParseCellRef(position)
	if err != nil {
		return err
	}
	shifted := ShiftFormula(formula, to.Row-from.Row, to.Col-from.Col)
	return wb.file.SetCellFormula(sheet, position, shifted)
}

func (wb *Workbook) copyValidations(sheet, position string, tmpl *TemplateCell) error {
	dvs, err := wb.file.GetDataValidations(tmpl.Sheet)
	if err != nil {
		return fmt.Errorf("read template validations %q: %w", tmpl.Sheet, err)
	}
	src, err := ParseCellRef(tmpl.Position)
	if err != nil {
		return err
	}
	for _, dv := range dvs {
		if dv == nil || !sqrefContains(dv.Sqref, src) {
			continue
		}
		cp := *dv
		cp.Sqref = position
		if err := wb.file.AddDataValidation(sheet, &cp); err != nil {
			return fmt.Errorf("copy validation to %s!%s: %w", sheet, position, err)
		}
	}
	return nil
}

// sqrefContains checks a space separated list of cells and ranges.
func sqrefContains(sqref string, ref CellRef) bool {
	for _, part := range strings.Fields(sqref) {
		first, last, isRange := strings.Cut(part, ":")
		a, err := ParseCellRef(first)
		if err != nil {
			continue
		}
		b := a
		if isRange {
			if b, err = ParseCellRef(last); err != nil {
				continue
			}
		}
		if ref.Row >= a.Row && ref.Row <= b.Row && ref.Col >= a.Col && ref.Col <= b.Col {
			return true
		}
	}
	return false
}

// MaxRow returns the last used row number, starting from 1.
func (wb *Workbook) MaxRow(sheet string) (int, error) {
	rows, err := wb.file.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// MaxCol returns the last used column number, starting from 1.
func (wb *Workbook) MaxCol(sheet string) (int, error) {
	cols, err := wb.file.GetCols(sheet)
	if err != nil {
		return 0, err
	}
	return len(cols), nil
}

// SheetNames returns all sheet names in workbook order.
func (wb *Workbook) SheetNames() []string {
	return wb.file.GetSheetList()
}

// CreateSheet adds a sheet, cloning copyFrom when it is not empty.
func (wb *Workbook) CreateSheet(name, copyFrom string) error {
	idx, err := wb.file.NewSheet(name)
	if err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	if copyFrom == "" {
		return nil
	}
	src, err := wb.file.GetSheetIndex(copyFrom)
	if err != nil || src < 0 {
		return fmt.Errorf("sheet %q not found", copyFrom)
	}
	return wb.file.CopySheet(src, idx)
}

// RemoveSheet deletes a sheet.
func (wb *Workbook) RemoveSheet(name string) error {
	return wb.file.DeleteSheet(name)
}

// SetSheetOrder moves a sheet to a 1-based position; positions below 1 mean
// first and positions past the end mean last.
func (wb *Workbook) SetSheetOrder(name string, order int) error {
	list := wb.file.GetSheetList()
	cur := -1
	for i, s := range list {
		if s == name {
			cur = i
		}
	}
	if cur < 0 {
		return fmt.Errorf("sheet %q not found", name)
	}
	target := min(max(order-1, 0), len(list)-1)
	switch {
	case target < cur:
		return wb.file.MoveSheet(name, list[target])
	case target > cur:
		// pull each following sheet in front of name
		for k := cur + 1; k <= target; k++ {
			if err := wb.file.MoveSheet(list[k], name); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetActiveSheet makes the named sheet active.
func (wb *Workbook) SetActiveSheet(name string) error {
	idx, err := wb.file.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return fmt.Errorf("sheet %q not found", name)
	}
	wb.file.SetActiveSheet(idx)
	return nil
}

// Save writes the workbook back to the path it was opened from.
func (wb *Workbook) Save() error {
	return wb.file.Save()
}

// SaveAs writes the workbook to path.
func (wb *Workbook) SaveAs(path string) error {
	return wb.file.SaveAs(path)
}

// Write writes the workbook to w.
func (wb *Workbook) Write(w io.Writer) error {
	return wb.file.Write(w)
}

// Close releases the underlying file.
func (wb *Workbook) Close() error {
	return wb.file.Close()
}

// PositionName formats a 1-based column and row as a position like "C7".
func PositionName(col, row int) string {
	return ColToName(col-1) + strconv.Itoa(row)
}
