package xlrecord

import (
	"fmt"
	"sort"
)

// DebugKey is the reserved template and map key that is never emitted as a field.
const DebugKey = "debug"

// FieldRule describes how one field of a row template obtains its value.
// Build rules with Col, ColFormat, Cell, CellFormat, Computed and Expr.
type FieldRule interface {
	resolve(baseRow int) (ResolvedField, error)
}

// ColRule reads the given column at the template's physical row.
type ColRule struct {
	Col      string
	Pattern  string       // optional number or date pattern
	Rounding RoundingMode // used with Pattern on numbers
}

// CellRule reads a fixed cell regardless of the row being extracted.
type CellRule struct {
	Position string
	Pattern  string
	Rounding RoundingMode
}

// ComputedRule produces a value from the record's first row number without reading the sheet.
type ComputedRule struct {
	Fn func(row int) (Scalar, error)
}

// ExprRule evaluates an expression with "row" and "sheet" bound.
type ExprRule struct {
	Expression string
}

// Col reads column col, unformatted.
func Col(col string) FieldRule { return ColRule{Col: col} }

// ColFormat reads column col and formats numbers or dates with pattern.
// Rounding defaults to HALF_EVEN.
func ColFormat(col, pattern string, rounding ...RoundingMode) FieldRule {
	return ColRule{Col: col, Pattern: pattern, Rounding: firstRounding(rounding)}
}

// Cell reads the literal position pos (e.g. "C1") for every record.
func Cell(pos string) FieldRule { return CellRule{Position: pos} }

// CellFormat reads the literal position pos and formats it.
func CellFormat(pos, pattern string, rounding ...RoundingMode) FieldRule {
	return CellRule{Position: pos, Pattern: pattern, Rounding: firstRounding(rounding)}
}

// Computed calls fn with the record's row number.
func Computed(fn func(row int) (Scalar, error)) FieldRule { return ComputedRule{Fn: fn} }

// Expr evaluates expression for every record, e.g. "row - 1".
func Expr(expression string) FieldRule { return ExprRule{Expression: expression} }

// firstRounding normalizes the optional rounding argument. Unknown names are
// kept so ValidateMapping can report them; they round HALF_EVEN.
func firstRounding(r []RoundingMode) RoundingMode {
	if len(r) == 0 || r[0] == "" {
		return DefaultRounding
	}
	if m, ok := ParseRoundingMode(string(r[0])); ok {
		return m
	}
	return r[0]
}

func (r ColRule) resolve(baseRow int) (ResolvedField, error) {
	pos, err := RowPosition(r.Col, baseRow)
	if err != nil {
		return ResolvedField{}, err
	}
	return ResolvedField{Position: pos, Pattern: r.Pattern, Rounding: r.Rounding}, nil
}

func (r CellRule) resolve(int) (ResolvedField, error) {
	if _, err := ParseCellRef(r.Position); err != nil {
		return ResolvedField{}, err
	}
	return ResolvedField{Position: r.Position, Fixed: true, Pattern: r.Pattern, Rounding: r.Rounding}, nil
}

func (r ComputedRule) resolve(int) (ResolvedField, error) {
	if r.Fn == nil {
		return ResolvedField{}, fmt.Errorf("computed rule has no function")
	}
	return ResolvedField{Compute: r.Fn}, nil
}

func (r ExprRule) resolve(int) (ResolvedField, error) {
	if r.Expression == "" {
		return ResolvedField{}, fmt.Errorf("expression rule is empty")
	}
	return ResolvedField{Expression: r.Expression}, nil
}

// RowTemplate maps field names to rules for one physical row.
type RowTemplate map[string]FieldRule

// Mapping is an ordered list of row templates describing one logical record.
// Template i is read from row start+i.
type Mapping []RowTemplate

// Single builds a one-row mapping.
func Single(t RowTemplate) Mapping { return Mapping{t} }

// Rows builds a multi-row mapping.
func Rows(templates ...RowTemplate) Mapping { return Mapping(templates) }

// Height is the number of physical rows one record spans.
func (m Mapping) Height() int { return len(m) }

// ResolvedField is a field rule bound to a concrete row.
// Exactly one of Position, Compute or Expression is set.
type ResolvedField struct {
	Name       string
	Position   string
	Fixed      bool // Position came from a literal cell, not the record's row
	Pattern    string
	Rounding   RoundingMode
	Compute    func(row int) (Scalar, error)
	Expression string
}

// ResolveTemplate binds every rule of t to physical row baseRow+offset.
// Computed rules stay deferred. No cells are read. Fields come back sorted by
// name and the debug key is dropped.
func ResolveTemplate(t RowTemplate, baseRow, offset int) ([]ResolvedField, error) {
	names := make([]string, 0, len(t))
	for name := range t {
		if name == DebugKey {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]ResolvedField, 0, len(names))
	for _, name := range names {
		rule := t[name]
		if rule == nil {
			return nil, fmt.Errorf("field %q has no rule", name)
		}
		rf, err := rule.resolve(baseRow + offset)
		if err != nil {
			return nil, fmt.Errorf("resolve field %q: %w", name, err)
		}
		rf.Name = name
		fields = append(fields, rf)
	}
	return fields, nil
}

// ResolveMapping resolves every template of m against row, template i at offset i.
func ResolveMapping(m Mapping, row int) ([][]ResolvedField, error) {
	out := make([][]ResolvedField, len(m))
	for i, t := range m {
		fields, err := ResolveTemplate(t, row, i)
		if err != nil {
			return nil, fmt.Errorf("row template %d: %w", i, err)
		}
		out[i] = fields
	}
	return out, nil
}
