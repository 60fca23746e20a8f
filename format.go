package xlrecord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vjeantet/jodaTime"
)

// ErrInvalidPattern is returned when a number or date pattern cannot be parsed.
var ErrInvalidPattern = errors.New("invalid format pattern")

// RoundingMode selects how a number is rounded to the pattern's fraction digits.
type RoundingMode string

const (
	RoundUp       RoundingMode = "UP"
	RoundDown     RoundingMode = "DOWN"
	RoundCeiling  RoundingMode = "CEILING"
	RoundFloor    RoundingMode = "FLOOR"
	RoundHalfUp   RoundingMode = "HALF_UP"
	RoundHalfDown RoundingMode = "HALF_DOWN"
	RoundHalfEven RoundingMode = "HALF_EVEN"
)

// DefaultRounding is used when no rounding mode, or an unknown one, is given.
const DefaultRounding = RoundHalfEven

// ParseRoundingMode maps a case-insensitive mode name to a RoundingMode.
// ok is false (and HALF_EVEN returned) for empty or unknown names.
func ParseRoundingMode(s string) (RoundingMode, bool) {
	switch m := RoundingMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case RoundUp, RoundDown, RoundCeiling, RoundFloor, RoundHalfUp, RoundHalfDown, RoundHalfEven:
		return m, true
	}
	return DefaultRounding, false
}

// Round rounds d to places fraction digits using the mode.
// Mode names are matched case-insensitively; unknown modes round HALF_EVEN.
func (m RoundingMode) Round(d decimal.Decimal, places int32) decimal.Decimal {
	m, _ = ParseRoundingMode(string(m))
	switch m {
	case RoundUp:
		return d.RoundUp(places)
	case RoundDown:
		return d.RoundDown(places)
	case RoundCeiling:
		return d.RoundCeil(places)
	case RoundFloor:
		return d.RoundFloor(places)
	case RoundHalfUp:
		return d.Round(places)
	case RoundHalfDown:
		// exact halves truncate toward zero, everything else rounds to nearest
		trunc := d.RoundDown(places)
		half := decimal.New(5, -(places + 1))
		if d.Sub(trunc).Abs().Equal(half) {
			return trunc
		}
		return d.Round(places)
	default:
		return d.RoundBank(places)
	}
}

// Formatter renders numbers and dates as text.
type Formatter interface {
	FormatNumber(value decimal.Decimal, pattern string, mode RoundingMode) (string, error)
	FormatDate(value time.Time, pattern string) (string, error)
}

// PatternFormatter formats with DecimalFormat-style number patterns
// ("#,##0.00", "0.0%", "¥#,##0;(¥#,##0)") and SimpleDateFormat-style
// date patterns ("yyyy/MM/dd HH:mm:ss").
type PatternFormatter struct {
	Location *time.Location // dates are converted to this zone before formatting; nil keeps theirs
}

// NewPatternFormatter returns a PatternFormatter that keeps each date's own zone.
func NewPatternFormatter() *PatternFormatter {
	return &PatternFormatter{}
}

// FormatNumber implements Formatter.
func (f *PatternFormatter) FormatNumber(value decimal.Decimal, pattern string, mode RoundingMode) (string, error) {
	np, err := parseNumberPattern(pattern)
	if err != nil {
		return "", err
	}
	return np.format(value, mode), nil
}

// FormatDate implements Formatter.
func (f *PatternFormatter) FormatDate(value time.Time, pattern string) (string, error) {
	if f.Location != nil {
		value = value.In(f.Location)
	}
	return formatDatePattern(value, pattern)
}

// numberPattern is one parsed DecimalFormat pattern.
type numberPattern struct {
	prefix, suffix       string
	negPrefix, negSuffix string
	hasNeg               bool
	minInt               int
	minFrac, maxFrac     int
	grouping             int // 0 = no grouping
	percent              bool
}

func parseNumberPattern(pattern string) (*numberPattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty number pattern", ErrInvalidPattern)
	}
	posPart, negPart, hasNeg := splitUnquoted(pattern, ';')

	np := &numberPattern{}
	prefix, body, suffix, err := splitAffixes(posPart)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	np.prefix, np.suffix = prefix, suffix
	np.percent = strings.Contains(prefix, "%") || strings.Contains(suffix, "%")

	intPart, fracPart, _ := strings.Cut(body, ".")
	if lastComma := strings.LastIndex(intPart, ","); lastComma >= 0 {
		np.grouping = len(intPart) - lastComma - 1
		if np.grouping == 0 {
			return nil, fmt.Errorf("%w %q: grouping separator at end of integer part", ErrInvalidPattern, pattern)
		}
	}
	for _, ch := range intPart {
		switch ch {
		case '0':
			np.minInt++
		case '#', ',':
		default:
			return nil, fmt.Errorf("%w %q: unexpected %q in integer part", ErrInvalidPattern, pattern, ch)
		}
	}
	for _, ch := range fracPart {
		switch ch {
		case '0':
			if np.maxFrac > np.minFrac {
				return nil, fmt.Errorf("%w %q: '0' after '#' in fraction", ErrInvalidPattern, pattern)
			}
			np.minFrac++
			np.maxFrac++
		case '#':
			np.maxFrac++
		default:
			return nil, fmt.Errorf("%w %q: unexpected %q in fraction part", ErrInvalidPattern, pattern, ch)
		}
	}

	if hasNeg {
		np.hasNeg = true
		np.negPrefix, _, np.negSuffix, err = splitAffixes(negPart)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
	}
	return np, nil
}

// splitAffixes separates literal prefix/suffix text from the digit body.
func splitAffixes(p string) (prefix, body, suffix string, err error) {
	start, end := -1, -1
	inQuote := false
	for i := 0; i < len(p); i++ {
		ch := p[i]
		if ch == '\'' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		if ch == '#' || ch == '0' || ch == ',' || ch == '.' {
			if start < 0 {
				start = i
			}
			end = i + 1
		}
	}
	if start < 0 {
		return "", "", "", fmt.Errorf("no digit placeholder")
	}
	return unquote(p[:start]), p[start:end], unquote(p[end:]), nil
}

func (np *numberPattern) format(v decimal.Decimal, mode RoundingMode) string {
	if np.percent {
		v = v.Mul(decimal.NewFromInt(100))
	}
	v = mode.Round(v, int32(np.maxFrac))
	neg := v.IsNegative()
	digits := v.Abs().StringFixed(int32(np.maxFrac))

	intDigits, fracDigits, _ := strings.Cut(digits, ".")
	for len(fracDigits) > np.minFrac && strings.HasSuffix(fracDigits, "0") {
		fracDigits = fracDigits[:len(fracDigits)-1]
	}
	intDigits = strings.TrimLeft(intDigits, "0")
	for len(intDigits) < np.minInt {
		intDigits = "0" + intDigits
	}
	if intDigits == "" && fracDigits == "" {
		intDigits = "0"
	}
	if np.grouping > 0 {
		intDigits = groupDigits(intDigits, np.grouping)
	}

	var b strings.Builder
	if neg {
		if np.hasNeg {
			b.WriteString(np.negPrefix)
		} else {
			b.WriteString("-" + np.prefix)
		}
	} else {
		b.WriteString(np.prefix)
	}
	b.WriteString(intDigits)
	if fracDigits != "" {
		b.WriteByte('.')
		b.WriteString(fracDigits)
	}
	if neg && np.hasNeg {
		b.WriteString(np.negSuffix)
	} else {
		b.WriteString(np.suffix)
	}
	return b.String()
}

func groupDigits(s string, size int) string {
	if len(s) <= size {
		return s
	}
	var b strings.Builder
	lead := len(s) % size
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += size {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+size])
	}
	return b.String()
}

func splitUnquoted(s string, sep byte) (string, string, bool) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inQuote = !inQuote
		case s[i] == sep && !inQuote:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// unquote strips single-quote escaping; "''" is a literal quote.
func unquote(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			if i+1 < len(s) && s[i+1] == '\'' {
				b.WriteByte('\'')
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// dateLetters are the pattern letters rendered by jodaTime; every other
// ASCII letter must be quoted.
const dateLetters = "yMdHhmsSaE"

// formatDatePattern renders t with a SimpleDateFormat-style pattern. Quoted
// text is copied as is ('' inside or outside quotes is an apostrophe) and each
// run of a pattern letter is rendered by jodaTime.
func formatDatePattern(t time.Time, pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("%w: empty date pattern", ErrInvalidPattern)
	}
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		ch := runes[i]
		if ch == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				b.WriteRune('\'')
				i += 2
				continue
			}
			j := i + 1
			closed := false
			for j < len(runes) {
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						b.WriteRune('\'')
						j += 2
						continue
					}
					closed = true
					break
				}
				b.WriteRune(runes[j])
				j++
			}
			if !closed {
				return "", fmt.Errorf("%w %q: unterminated quote", ErrInvalidPattern, pattern)
			}
			i = j + 1
			continue
		}
		if ch > 'z' || !isAlpha(byte(ch)) {
			b.WriteRune(ch)
			i++
			continue
		}
		if !strings.ContainsRune(dateLetters, ch) {
			return "", fmt.Errorf("%w %q: unsupported pattern letter %q", ErrInvalidPattern, pattern, ch)
		}
		n := 1
		for i+n < len(runes) && runes[i+n] == ch {
			n++
		}
		b.WriteString(jodaTime.Format(strings.Repeat(string(ch), n), t))
		i += n
	}
	return b.String(), nil
}
