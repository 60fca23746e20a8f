package xlrecord

import (
	"fmt"
	"strings"
)

// Describe resolves m at row and returns a human-readable listing of where
// every field of the record comes from. Useful for debugging mappings.
func Describe(m Mapping, row int) (string, error) {
	resolved, err := ResolveMapping(m, row)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Mapping: %d row(s) per record, record at row %d\n", m.Height(), row)
	for i, fields := range resolved {
		fmt.Fprintf(&b, "  row %d (template %d)\n", row+i, i+1)
		for _, f := range fields {
			fmt.Fprintf(&b, "    %s: %s\n", f.Name, describeField(f))
		}
	}
	return b.String(), nil
}

func describeField(f ResolvedField) string {
	switch {
	case f.Compute != nil:
		return "computed"
	case f.Expression != "":
		return fmt.Sprintf("expr %q", f.Expression)
	}
	s := f.Position
	if f.Fixed {
		s += " (fixed)"
	}
	if f.Pattern != "" {
		s += fmt.Sprintf(" format %q %s", f.Pattern, f.Rounding)
	}
	return s
}
