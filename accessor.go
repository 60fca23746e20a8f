package xlrecord

import (
	"fmt"
	"log/slog"
)

// CellAccessor reads and writes single cells of an open workbook.
//
// ReadCell returns one of the raw kinds understood by ScalarOf: nil, string,
// bool, any integer or float type, decimal.Decimal, *big.Int or time.Time.
// Other values are tolerated; they are reported through Diagnostics and
// carried as OtherKind scalars.
//
// WriteCell writes a typed value. A Null scalar empties the cell.
type CellAccessor interface {
	ReadCell(sheet, position string) (any, error)
	WriteCell(sheet, position string, value Scalar) error
}

// Diagnostics receives best-effort reports. Implementations must not panic.
type Diagnostics interface {
	ReportUnsupportedType(message string)
}

// LogDiagnostics reports through a slog logger at error level.
type LogDiagnostics struct {
	Logger *slog.Logger
}

// ReportUnsupportedType implements Diagnostics.
func (d LogDiagnostics) ReportUnsupportedType(message string) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("unsupported cell value", "detail", message)
}

// coerce normalizes a raw cell value, reporting unsupported kinds.
func coerce(raw any, diag Diagnostics) Scalar {
	s, ok := ScalarOf(raw)
	if !ok && diag != nil {
		diag.ReportUnsupportedType(fmt.Sprintf("[%v] is an instance of %T which is not supported", raw, raw))
	}
	return s
}

// applyFormat renders s with pattern when s is a number or a date.
// Values of any other kind, and null, come back unchanged.
func applyFormat(f Formatter, s Scalar, pattern string, mode RoundingMode) (Scalar, error) {
	if pattern == "" {
		return s, nil
	}
	switch s.Kind() {
	case NumberKind:
		n, _ := s.Num()
		out, err := f.FormatNumber(n, pattern, mode)
		if err != nil {
			return Null, err
		}
		return String(out), nil
	case DateKind:
		t, _ := s.Time()
		out, err := f.FormatDate(t, pattern)
		if err != nil {
			return Null, err
		}
		return String(out), nil
	}
	return s, nil
}
