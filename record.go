package xlrecord

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Record is an ordered collection of items with chainable query operations.
//
// Seek, Sort, Map, Select and OrderBy replace the internal slice and return
// the same *Record. Holding two references to one Record and chaining from one
// of them changes what the other sees; use GetArray or GetSingle for a copy
// that later calls cannot touch. A Record is not safe for concurrent use.
type Record struct {
	values []Item
	length int
	opts   *Options
	err    error
}

// NewRecord wraps items. A nil slice gives an empty Record. The slice is
// adopted, not copied.
func NewRecord(items []Item, opts ...Option) *Record {
	r := &Record{opts: buildOptions(opts)}
	if items == nil {
		items = []Item{}
	}
	r.set(items)
	return r
}

func (r *Record) set(items []Item) {
	r.values = items
	r.length = len(items)
}

// Len returns the number of items.
func (r *Record) Len() int { return r.length }

// Err returns the first error raised by Map or Select. Once set, further
// chained operations are skipped.
func (r *Record) Err() error { return r.err }

// Seek actions.
const (
	SeekEq      = "eq"
	SeekGt      = "gt"
	SeekLt      = "lt"
	SeekLike    = "like"
	SeekNotEq   = "!eq"
	SeekNotGt   = "!gt"
	SeekNotLt   = "!lt"
	SeekNotLike = "!like"
)

// Seek keeps the items whose field matches value under action, one of
// eq, gt, lt, like, !eq, !gt, !lt, !like. An empty field or any other action
// leaves the Record untouched.
//
// For like and !like the value is taken as text: a leading "%" lets anything
// precede the match, a trailing "%" lets anything follow it. Matching uses the
// first occurrence of the text, so without wildcards the field text must equal
// the value exactly.
func (r *Record) Seek(field, action string, value any) *Record {
	if r.err != nil || field == "" {
		return r
	}
	var match func(v Scalar) bool
	target, _ := ScalarOf(value)

	switch action {
	case SeekEq:
		match = func(v Scalar) bool { return Equal(v, target) }
	case SeekNotEq:
		match = func(v Scalar) bool { return !Equal(v, target) }
	case SeekGt:
		match = func(v Scalar) bool { c, ok := Compare(v, target); return ok && c > 0 }
	case SeekLt:
		match = func(v Scalar) bool { c, ok := Compare(v, target); return ok && c < 0 }
	case SeekNotGt:
		match = func(v Scalar) bool { c, ok := Compare(v, target); return ok && c <= 0 }
	case SeekNotLt:
		match = func(v Scalar) bool { c, ok := Compare(v, target); return ok && c >= 0 }
	case SeekLike, SeekNotLike:
		p := newLikePattern(target.Text())
		if action == SeekLike {
			match = func(v Scalar) bool { return p.matches(v.Text()) }
		} else {
			match = func(v Scalar) bool { return !p.matches(v.Text()) }
		}
	default:
		return r
	}

	kept := make([]Item, 0, len(r.values))
	for _, it := range r.values {
		if match(it[field]) {
			kept = append(kept, it)
		}
	}
	r.set(kept)
	return r
}

type likePattern struct {
	text                string
	anyBefore, anyAfter bool
}

func newLikePattern(value string) likePattern {
	p := likePattern{
		anyBefore: strings.HasPrefix(value, "%"),
		anyAfter:  strings.HasSuffix(value, "%"),
	}
	if p.anyBefore {
		value = value[1:]
	}
	if p.anyAfter && value != "" {
		value = value[:len(value)-1]
	}
	p.text = value
	return p
}

func (p likePattern) matches(data string) bool {
	idx := strings.Index(data, p.text)
	head := (!p.anyBefore && idx == 0) || (p.anyBefore && idx > -1)
	tail := (!p.anyAfter && idx == len(data)-len(p.text)) || (p.anyAfter && idx > -1)
	return head && tail
}

// Sort orders items by field, action "asc" or "desc" in any case. Items whose
// values cannot be compared keep their relative order. An empty field or
// another action leaves the Record untouched.
func (r *Record) Sort(field, action string) *Record {
	if r.err != nil || field == "" {
		return r
	}
	var desc bool
	switch strings.ToLower(action) {
	case "asc":
	case "desc":
		desc = true
	default:
		return r
	}
	sorted := slices.Clone(r.values)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return compareField(a, b, field, desc)
	})
	r.set(sorted)
	return r
}

func compareField(a, b Item, field string, desc bool) int {
	c, ok := Compare(a[field], b[field])
	if !ok {
		return 0
	}
	if desc {
		return -c
	}
	return c
}

// orderBySpec represents a single sort field with direction.
type orderBySpec struct {
	field string
	desc  bool
}

// parseOrderBy parses an orderBy string like "name ASC, payment DESC".
func parseOrderBy(spec string) []orderBySpec {
	var specs []orderBySpec
	for _, p := range strings.Split(spec, ",") {
		tokens := strings.Fields(p)
		if len(tokens) == 0 {
			continue
		}
		desc := len(tokens) > 1 && strings.EqualFold(tokens[1], "DESC")
		specs = append(specs, orderBySpec{field: tokens[0], desc: desc})
	}
	return specs
}

// OrderBy sorts by several keys, e.g. "dept ASC, salary DESC". Later keys
// break ties of earlier ones; direction defaults to ascending.
func (r *Record) OrderBy(spec string) *Record {
	specs := parseOrderBy(spec)
	if r.err != nil || len(specs) == 0 {
		return r
	}
	sorted := slices.Clone(r.values)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		for _, s := range specs {
			if c := compareField(a, b, s.field, s.desc); c != 0 {
				return c
			}
		}
		return 0
	})
	r.set(sorted)
	return r
}

// Select keeps the items for which condition is true. Fields are bound by
// name, e.g. `age >= 30 && dept == "Sales"`.
func (r *Record) Select(condition string) *Record {
	if r.err != nil || strings.TrimSpace(condition) == "" {
		return r
	}
	kept := make([]Item, 0, len(r.values))
	for i, it := range r.values {
		ok, err := r.opts.evaluator.IsConditionTrue(condition, it.Native())
		if err != nil {
			r.err = fmt.Errorf("select item %d: %w", i, err)
			return r
		}
		if ok {
			kept = append(kept, it)
		}
	}
	r.set(kept)
	return r
}

// MapRule produces one output field from a source item.
type MapRule interface {
	apply(r *Record, src Item) (Scalar, error)
}

// MapSpec maps output field names to rules.
type MapSpec map[string]MapRule

type fromRule string

type fnRule func(src Item) Scalar

type fmtRule struct {
	field    string
	pattern  string
	rounding RoundingMode
}

type exprMapRule string

// From copies the source field.
func From(field string) MapRule { return fromRule(field) }

// Fn computes the output from the whole source item. fn must not modify src.
func Fn(fn func(src Item) Scalar) MapRule { return fnRule(fn) }

// Fmt copies the source field, formatting it when it is a number or a date.
// Other values pass through unformatted.
func Fmt(field, pattern string, rounding ...RoundingMode) MapRule {
	return fmtRule{field: field, pattern: pattern, rounding: firstRounding(rounding)}
}

// MapExpr evaluates expression with the source fields bound by name.
func MapExpr(expression string) MapRule { return exprMapRule(expression) }

func (f fromRule) apply(_ *Record, src Item) (Scalar, error) { return src[string(f)], nil }

func (f fnRule) apply(_ *Record, src Item) (Scalar, error) { return f(src), nil }

func (f fmtRule) apply(r *Record, src Item) (Scalar, error) {
	v := src[f.field]
	if v.IsNull() {
		return v, nil
	}
	return applyFormat(r.opts.formatter, v, f.pattern, f.rounding)
}

func (f exprMapRule) apply(r *Record, src Item) (Scalar, error) {
	out, err := r.opts.evaluator.Evaluate(string(f), src.Native())
	if err != nil {
		return Null, err
	}
	return coerce(out, r.opts.diagnostics), nil
}

// Map reshapes every item through spec. The debug key is never emitted.
// A nil spec leaves the Record untouched.
func (r *Record) Map(spec MapSpec) *Record {
	if r.err != nil || spec == nil {
		return r
	}
	out := make([]Item, 0, len(r.values))
	for i, src := range r.values {
		item := make(Item, len(spec))
		for key, rule := range spec {
			if key == DebugKey || rule == nil {
				continue
			}
			v, err := rule.apply(r, src)
			if err != nil {
				r.err = fmt.Errorf("map field %q of item %d: %w", key, i, err)
				return r
			}
			item[key] = v
		}
		out = append(out, item)
	}
	r.set(out)
	return r
}

// GetSingle returns a copy of the first item, or an empty item.
func (r *Record) GetSingle() Item {
	if len(r.values) == 0 {
		return Item{}
	}
	return r.values[0].Clone()
}

// GetArray returns a deep copy of all items.
func (r *Record) GetArray() []Item {
	out := make([]Item, len(r.values))
	for i, it := range r.values {
		out[i] = it.Clone()
	}
	return out
}

// GetValue returns field of the first item, or Null when there are no items.
func (r *Record) GetValue(field string) Scalar {
	if len(r.values) == 0 {
		return Null
	}
	return r.values[0][field]
}

// MarshalJSON encodes the items as a JSON array.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}
