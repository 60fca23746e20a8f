package xlrecord

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tiendc/go-deepcopy"
)

// Kind identifies which variant a Scalar holds.
type Kind int

const (
	NullKind Kind = iota
	StringKind
	NumberKind
	BoolKind
	DateKind
	OtherKind // unsupported raw value carried through unchanged
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case NullKind:
		return "Null"
	case StringKind:
		return "String"
	case NumberKind:
		return "Number"
	case BoolKind:
		return "Boolean"
	case DateKind:
		return "Date"
	case OtherKind:
		return "Other"
	default:
		return "Unknown"
	}
}

// Scalar is the only value type flowing through cells and records.
// The zero value is Null.
type Scalar struct {
	kind Kind
	str  string
	num  decimal.Decimal
	b    bool
	t    time.Time
	raw  any
}

// Null is the null Scalar.
var Null = Scalar{}

// String creates a string Scalar.
func String(s string) Scalar { return Scalar{kind: StringKind, str: s} }

// Number creates a number Scalar from a decimal.
func Number(d decimal.Decimal) Scalar { return Scalar{kind: NumberKind, num: d} }

// Int creates a number Scalar from an integer.
func Int(n int64) Scalar { return Number(decimal.NewFromInt(n)) }

// Float creates a number Scalar from a float64.
func Float(f float64) Scalar { return Number(decimal.NewFromFloat(f)) }

// Bool creates a boolean Scalar.
func Bool(b bool) Scalar { return Scalar{kind: BoolKind, b: b} }

// Date creates a date Scalar.
func Date(t time.Time) Scalar { return Scalar{kind: DateKind, t: t} }

// Kind returns the variant held by s.
func (s Scalar) Kind() Kind { return s.kind }

// IsNull reports whether s is Null.
func (s Scalar) IsNull() bool { return s.kind == NullKind }

// Str returns the string payload; ok is false for non-string kinds.
func (s Scalar) Str() (string, bool) { return s.str, s.kind == StringKind }

// Num returns the numeric payload; ok is false for non-number kinds.
func (s Scalar) Num() (decimal.Decimal, bool) { return s.num, s.kind == NumberKind }

// Boolean returns the boolean payload; ok is false for non-boolean kinds.
func (s Scalar) Boolean() (bool, bool) { return s.b, s.kind == BoolKind }

// Time returns the date payload; ok is false for non-date kinds.
func (s Scalar) Time() (time.Time, bool) { return s.t, s.kind == DateKind }

// Raw returns the value carried by an OtherKind scalar.
func (s Scalar) Raw() any { return s.raw }

// Text renders s the way string concatenation would: null becomes "null",
// numbers use their shortest decimal form and dates RFC 3339.
func (s Scalar) Text() string {
	switch s.kind {
	case NullKind:
		return "null"
	case StringKind:
		return s.str
	case NumberKind:
		return s.num.String()
	case BoolKind:
		if s.b {
			return "true"
		}
		return "false"
	case DateKind:
		return s.t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", s.raw)
	}
}

// String implements fmt.Stringer.
func (s Scalar) String() string {
	if s.kind == StringKind {
		return fmt.Sprintf("%q", s.str)
	}
	return s.Text()
}

// Native returns the Go value of s: nil, string, float64, bool, time.Time or the raw value.
// It is the form handed to expressions.
func (s Scalar) Native() any {
	switch s.kind {
	case StringKind:
		return s.str
	case NumberKind:
		f, _ := s.num.Float64()
		return f
	case BoolKind:
		return s.b
	case DateKind:
		return s.t
	case OtherKind:
		return s.raw
	default:
		return nil
	}
}

// MarshalJSON encodes s as its natural JSON value.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case NullKind:
		return []byte("null"), nil
	case NumberKind:
		return []byte(s.num.String()), nil
	case BoolKind:
		return json.Marshal(s.b)
	case DateKind:
		return json.Marshal(s.t.Format(time.RFC3339Nano))
	default:
		return json.Marshal(s.Text())
	}
}

// UnmarshalJSON decodes JSON scalars. Strings stay strings; dates are not inferred.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	sc, ok := ScalarOf(v)
	if !ok {
		return fmt.Errorf("cannot decode %s as a scalar", string(data))
	}
	*s = sc
	return nil
}

// ScalarOf converts a native Go value into a Scalar. It accepts nil, strings,
// booleans, every integer and float type, decimal.Decimal, *big.Int, *big.Float,
// json.Number, time.Time and Scalar itself. For anything else it returns an
// OtherKind scalar wrapping v and ok=false.
func ScalarOf(v any) (Scalar, bool) {
	switch x := v.(type) {
	case nil:
		return Null, true
	case Scalar:
		return x, true
	case string:
		return String(x), true
	case bool:
		return Bool(x), true
	case int:
		return Int(int64(x)), true
	case int8:
		return Int(int64(x)), true
	case int16:
		return Int(int64(x)), true
	case int32:
		return Int(int64(x)), true
	case int64:
		return Int(x), true
	case uint:
		return Number(decimal.NewFromUint64(uint64(x))), true
	case uint8:
		return Int(int64(x)), true
	case uint16:
		return Int(int64(x)), true
	case uint32:
		return Int(int64(x)), true
	case uint64:
		return Number(decimal.NewFromUint64(x)), true
	case float32:
		return Number(decimal.NewFromFloat32(x)), true
	case float64:
		return Float(x), true
	case decimal.Decimal:
		return Number(x), true
	case *decimal.Decimal:
		if x == nil {
			return Null, true
		}
		return Number(*x), true
	case *big.Int:
		if x == nil {
			return Null, true
		}
		return Number(decimal.NewFromBigInt(x, 0)), true
	case *big.Float:
		if x == nil {
			return Null, true
		}
		d, err := decimal.NewFromString(x.Text('f', -1))
		if err != nil {
			return Scalar{kind: OtherKind, raw: v}, false
		}
		return Number(d), true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return Scalar{kind: OtherKind, raw: v}, false
		}
		return Number(d), true
	case time.Time:
		return Date(x), true
	case *time.Time:
		if x == nil {
			return Null, true
		}
		return Date(*x), true
	default:
		return Scalar{kind: OtherKind, raw: v}, false
	}
}

// MustScalar is ScalarOf without the ok flag.
func MustScalar(v any) Scalar {
	s, _ := ScalarOf(v)
	return s
}

// Compare orders a against b. ok is false when the pair cannot be ordered:
// either side is null or an unsupported value, or a string that is not a
// number meets a number, date or boolean.
//
// Mixed kinds: a numeric string compares numerically with a number, booleans
// count as 0 and 1 against numbers, dates compare with numbers as epoch
// milliseconds, and a date against a string compares their text forms.
func Compare(a, b Scalar) (int, bool) {
	if a.kind == NullKind || b.kind == NullKind || a.kind == OtherKind || b.kind == OtherKind {
		return 0, false
	}
	if a.kind == b.kind {
		switch a.kind {
		case StringKind:
			return strings.Compare(a.str, b.str), true
		case NumberKind:
			return a.num.Cmp(b.num), true
		case BoolKind:
			return boolNum(a.b).Cmp(boolNum(b.b)), true
		case DateKind:
			return a.t.Compare(b.t), true
		}
	}
	if a.kind == StringKind && b.kind == DateKind || a.kind == DateKind && b.kind == StringKind {
		return strings.Compare(a.Text(), b.Text()), true
	}
	an, aok := numericValue(a)
	bn, bok := numericValue(b)
	if !aok || !bok {
		return 0, false
	}
	return an.Cmp(bn), true
}

// Equal reports whether a and b are equal under Compare. Null equals only null.
func Equal(a, b Scalar) bool {
	if a.kind == NullKind || b.kind == NullKind {
		return a.kind == b.kind
	}
	if a.kind == OtherKind || b.kind == OtherKind {
		return a.kind == b.kind && fmt.Sprint(a.raw) == fmt.Sprint(b.raw)
	}
	c, ok := Compare(a, b)
	return ok && c == 0
}

func numericValue(s Scalar) (decimal.Decimal, bool) {
	switch s.kind {
	case NumberKind:
		return s.num, true
	case BoolKind:
		return boolNum(s.b), true
	case DateKind:
		return decimal.NewFromInt(s.t.UnixMilli()), true
	case StringKind:
		d, err := decimal.NewFromString(strings.TrimSpace(s.str))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

func boolNum(b bool) decimal.Decimal {
	if b {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

// Item is one record: field name to value.
type Item map[string]Scalar

// Clone returns a copy of the item that shares no map storage with it.
// Unsupported values holding a slice, map or pointer are deep-copied; if that
// copy fails the value is shared.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		if v.kind == OtherKind {
			v.raw = cloneRaw(v.raw)
		}
		out[k] = v
	}
	return out
}

func cloneRaw(raw any) any {
	if raw == nil {
		return nil
	}
	switch reflect.TypeOf(raw).Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
	default:
		return raw
	}
	dst := reflect.New(reflect.TypeOf(raw))
	if err := deepcopy.Copy(dst.Interface(), raw); err != nil {
		return raw
	}
	return dst.Elem().Interface()
}

// Native converts the item into a map of native Go values.
func (it Item) Native() map[string]any {
	out := make(map[string]any, len(it))
	for k, v := range it {
		out[k] = v.Native()
	}
	return out
}
