package xlrecord

import (
	"regexp"
	"strconv"
	"strings"
)

// cellRefRegex matches cell references in formulas (e.g., A1, $A$1, Sheet1!A1).
// Groups: 1 sheet prefix, 2 column anchor, 3 column, 4 row anchor, 5 row.
var cellRefRegex = regexp.MustCompile(`((?:'[^']+'|[A-Za-z_][A-Za-z0-9_.]*)!)?(\$?)([A-Z]{1,3})(\$?)(\d+)`)

// ShiftFormula moves the relative references of formula by dRow rows and dCol
// columns, the way copying a formula cell does. Anchored parts ($A, $1) stay.
// String literals and function names such as LOG10( are left alone. A
// reference pushed before A1 is replaced by #REF!.
func ShiftFormula(formula string, dRow, dCol int) string {
	if dRow == 0 && dCol == 0 {
		return formula
	}
	quoted := stringLiteralSpans(formula)
	matches := cellRefRegex.FindAllStringSubmatchIndex(formula, -1)
	if len(matches) == 0 {
		return formula
	}

	result := formula
	// Process matches in reverse order to preserve indices
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		start, end := m[0], m[1]
		if inSpans(start, quoted) || !isRefBoundary(formula, start, end) {
			continue
		}
		col, err := NameToCol(formula[m[6]:m[7]])
		if err != nil {
			continue
		}
		row, err := strconv.Atoi(formula[m[10]:m[11]])
		if err != nil {
			continue
		}
		colAbs := m[4] != m[5]
		rowAbs := m[8] != m[9]
		if !colAbs {
			col += dCol
		}
		if !rowAbs {
			row += dRow
		}

		var replacement string
		if col < 0 || row < 1 {
			replacement = "#REF!"
		} else {
			var b strings.Builder
			if m[2] >= 0 {
				b.WriteString(formula[m[2]:m[3]])
			}
			if colAbs {
				b.WriteByte('$')
			}
			b.WriteString(ColToName(col))
			if rowAbs {
				b.WriteByte('$')
			}
			b.WriteString(strconv.Itoa(row))
			replacement = b.String()
		}
		result = result[:start] + replacement + result[end:]
	}
	return result
}

// isRefBoundary rejects matches glued to identifiers or followed by "(".
func isRefBoundary(s string, start, end int) bool {
	if start > 0 {
		prev := s[start-1]
		if isAlpha(prev) || prev == '_' || prev == '.' || (prev >= '0' && prev <= '9') {
			return false
		}
	}
	if end < len(s) {
		next := s[end]
		if next == '(' || isAlpha(next) || next == '_' || (next >= '0' && next <= '9') {
			return false
		}
	}
	return true
}

// stringLiteralSpans returns [start,end) spans of "..." literals.
func stringLiteralSpans(s string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		j := i + 1
		for j < len(s) {
			if s[j] == '"' {
				if j+1 < len(s) && s[j+1] == '"' {
					j += 2
					continue
				}
				break
			}
			j++
		}
		spans = append(spans, [2]int{i, j + 1})
		i = j
	}
	return spans
}

func inSpans(pos int, spans [][2]int) bool {
	for _, sp := range spans {
		if pos >= sp[0] && pos < sp[1] {
			return true
		}
	}
	return false
}
