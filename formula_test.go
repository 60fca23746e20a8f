package xlrecord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftFormula(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		dRow     int
		dCol     int
		expected string
	}{
		{"relative", "A1+B2", 1, 1, "B2+C3"},
		{"absolute kept", "$A$1+A1", 2, 0, "$A$1+A3"},
		{"mixed anchors", "$A1+A$1", 1, 1, "$A2+B$1"},
		{"range", "SUM(A1:A3)", 1, 0, "SUM(A2:A4)"},
		{"string literal", `"A1"&A1`, 1, 0, `"A1"&A2`},
		{"function name", "LOG10(A1)", 1, 0, "LOG10(A2)"},
		{"sheet prefix", "Sheet1!A1*2", 3, 0, "Sheet1!A4*2"},
		{"quoted sheet", "'My Sheet'!B2", 0, 1, "'My Sheet'!C2"},
		{"out of range", "A1", -1, 0, "#REF!"},
		{"no shift", "A1", 0, 0, "A1"},
		{"no refs", "1+2", 5, 5, "1+2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShiftFormula(tt.formula, tt.dRow, tt.dCol))
		})
	}
}
