package xlrecord

import (
	"fmt"
)

// Mapper extracts records from a sheet through a CellAccessor.
// A Mapper is not safe for concurrent use; neither is the workbook behind it.
type Mapper struct {
	accessor CellAccessor
	opts     *Options
}

// NewMapper creates a Mapper reading through acc.
func NewMapper(acc CellAccessor, opts ...Option) *Mapper {
	return &Mapper{accessor: acc, opts: buildOptions(opts)}
}

// ReadValue reads one cell and coerces it to a Scalar. When pattern is not
// empty, numbers and dates are formatted into strings.
func (m *Mapper) ReadValue(sheet, position, pattern string, rounding RoundingMode) (Scalar, error) {
	raw, err := m.accessor.ReadCell(sheet, position)
	if err != nil {
		return Null, fmt.Errorf("read %s!%s: %w", sheet, position, err)
	}
	v := coerce(raw, m.opts.diagnostics)
	if rounding == "" {
		rounding = DefaultRounding
	}
	v, err = applyFormat(m.opts.formatter, v, pattern, rounding)
	if err != nil {
		return Null, fmt.Errorf("format %s!%s: %w", sheet, position, err)
	}
	return v, nil
}

// ExtractOne reads one record whose first physical row is row.
// Fields of all templates are merged into one item; when two templates use
// the same field name the later template wins.
func (m *Mapper) ExtractOne(sheet string, mapping Mapping, row int) (Item, error) {
	if len(mapping) == 0 {
		return nil, ErrEmptyMapping
	}
	resolved, err := ResolveMapping(mapping, row)
	if err != nil {
		return nil, NewExtractionError(sheet, row, "", err)
	}
	item := make(Item)
	for _, fields := range resolved {
		for _, f := range fields {
			v, err := m.readField(sheet, f, row)
			if err != nil {
				return nil, NewExtractionError(sheet, row, f.Name, err)
			}
			item[f.Name] = v
		}
	}
	return item, nil
}

// ExtractFixed reads a template made of literal cells and computed rules,
// the way a header block is read. Computed rules receive row 0.
func (m *Mapper) ExtractFixed(sheet string, t RowTemplate) (Item, error) {
	fields, err := ResolveTemplate(t, 0, 0)
	if err != nil {
		return nil, NewExtractionError(sheet, 0, "", err)
	}
	item := make(Item, len(fields))
	for _, f := range fields {
		v, err := m.readField(sheet, f, 0)
		if err != nil {
			return nil, NewExtractionError(sheet, 0, f.Name, err)
		}
		item[f.Name] = v
	}
	return item, nil
}

func (m *Mapper) readField(sheet string, f ResolvedField, row int) (Scalar, error) {
	switch {
	case f.Compute != nil:
		return f.Compute(row)
	case f.Expression != "":
		out, err := m.opts.evaluator.Evaluate(f.Expression, map[string]any{"row": row, "sheet": sheet})
		if err != nil {
			return Null, err
		}
		return coerce(out, m.opts.diagnostics), nil
	default:
		return m.ReadValue(sheet, f.Position, f.Pattern, f.Rounding)
	}
}

// ExtractRange reads records starting at row start until end says to stop,
// advancing by the mapping's height after each record. Any failure discards
// the records read so far.
func (m *Mapper) ExtractRange(sheet string, mapping Mapping, start int, end EndCondition) ([]Item, error) {
	if len(mapping) == 0 {
		return nil, ErrEmptyMapping
	}
	if end == nil {
		return nil, fmt.Errorf("extract range on sheet %q: no end condition", sheet)
	}
	items := []Item{}
	for row := start; ; row += mapping.Height() {
		stop, err := end.done(m, sheet, row)
		if err != nil {
			return nil, fmt.Errorf("end condition at row %d: %w", row, err)
		}
		if stop {
			break
		}
		item, err := m.ExtractOne(sheet, mapping, row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	m.opts.logger.Debug("extracted range", "sheet", sheet, "start", start, "records", len(items))
	return items, nil
}

// EndCondition decides, before each record is read, whether extraction stops.
type EndCondition interface {
	done(m *Mapper, sheet string, row int) (bool, error)
}

// EndRow stops once the current row is past the given row; the row itself is read.
type EndRow int

func (e EndRow) done(_ *Mapper, _ string, row int) (bool, error) {
	return row > int(e), nil
}

// Until stops at the first row for which the predicate returns true; that row
// is not read. A predicate that never returns true never stops.
type Until func(row int) bool

func (u Until) done(_ *Mapper, _ string, row int) (bool, error) {
	return u(row), nil
}

// UntilExpr is an expression predicate over "row" and "sheet", e.g. "row > 20".
type UntilExpr string

func (u UntilExpr) done(m *Mapper, sheet string, row int) (bool, error) {
	return m.opts.evaluator.IsConditionTrue(string(u), map[string]any{"row": row, "sheet": sheet})
}

// UntilEmpty stops at the first row whose cell in the given column is empty.
type UntilEmpty string

func (u UntilEmpty) done(m *Mapper, sheet string, row int) (bool, error) {
	pos, err := RowPosition(string(u), row)
	if err != nil {
		return false, err
	}
	v, err := m.ReadValue(sheet, pos, "", "")
	if err != nil {
		return false, err
	}
	if s, ok := v.Str(); ok {
		return s == "", nil
	}
	return v.IsNull(), nil
}
