package xlrecord

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func people() []Item {
	return []Item{
		{"name": String("Alice"), "age": Int(30), "dept": String("Sales")},
		{"name": String("bob"), "age": Int(25), "dept": String("Dev")},
		{"name": String("Carol"), "age": Int(41), "dept": String("Sales")},
		{"name": String("Dave"), "age": Int(19), "dept": String("Dev")},
	}
}

func names(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it["name"].Text()
	}
	return out
}

func TestNewRecord_Empty(t *testing.T) {
	r := NewRecord(nil)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, Item{}, r.GetSingle())
	assert.True(t, r.GetValue("anything").IsNull())
	assert.Equal(t, []Item{}, r.GetArray())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRecord_GetArrayIsDeepCopy(t *testing.T) {
	r := NewRecord(people())
	arr := r.GetArray()
	arr[0]["name"] = String("changed")

	assert.Equal(t, String("Alice"), r.GetValue("name"))
	assert.Equal(t, 4, r.Len())

	single := r.GetSingle()
	single["name"] = String("changed")
	assert.Equal(t, String("Alice"), r.GetValue("name"))
}

func TestRecord_SeekEqAndNotEqPartition(t *testing.T) {
	eq := NewRecord(people()).Seek("dept", SeekEq, "Sales")
	ne := NewRecord(people()).Seek("dept", SeekNotEq, "Sales")
	assert.Equal(t, []string{"Alice", "Carol"}, names(eq.GetArray()))
	assert.Equal(t, []string{"bob", "Dave"}, names(ne.GetArray()))
	assert.Equal(t, 4, eq.Len()+ne.Len())
}

func TestRecord_SeekComparisons(t *testing.T) {
	assert.Equal(t, []string{"Alice", "Carol"}, names(NewRecord(people()).Seek("age", SeekGt, 25).GetArray()))
	assert.Equal(t, []string{"Dave"}, names(NewRecord(people()).Seek("age", SeekLt, 25).GetArray()))
	assert.Equal(t, []string{"bob", "Dave"}, names(NewRecord(people()).Seek("age", SeekNotGt, 25).GetArray()))
	assert.Equal(t, []string{"Alice", "bob", "Carol"}, names(NewRecord(people()).Seek("age", SeekNotLt, 25).GetArray()))
}

func TestRecord_SeekNumericString(t *testing.T) {
	r := NewRecord([]Item{{"n": String("10")}, {"n": String("9")}, {"n": String("x")}})
	r.Seek("n", SeekGt, 9)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, String("10"), r.GetValue("n"))
}

func TestRecord_SeekMissingFieldIsNull(t *testing.T) {
	r := NewRecord([]Item{{"a": Int(1)}, {"b": Int(2)}})
	assert.Equal(t, 1, NewRecord(r.GetArray()).Seek("a", SeekEq, nil).Len())
	assert.Equal(t, 0, NewRecord(r.GetArray()).Seek("a", SeekGt, nil).Len())
	assert.Equal(t, 0, NewRecord(r.GetArray()).Seek("b", SeekNotLt, 5).Len())
}

func TestRecord_SeekLike(t *testing.T) {
	items := func() []Item {
		return []Item{
			{"s": String("ab")},
			{"s": String("xaby")},
			{"s": String("abz")},
			{"s": String("zab")},
			{"s": String("abab")},
		}
	}
	texts := func(r *Record) []string {
		var out []string
		for _, it := range r.GetArray() {
			out = append(out, it["s"].Text())
		}
		return out
	}

	assert.Equal(t, []string{"ab", "xaby", "abz", "zab", "abab"}, texts(NewRecord(items()).Seek("s", SeekLike, "%ab%")))
	assert.Equal(t, []string{"ab"}, texts(NewRecord(items()).Seek("s", SeekLike, "ab")))
	assert.Equal(t, []string{"ab", "abz", "abab"}, texts(NewRecord(items()).Seek("s", SeekLike, "ab%")))
	// the first occurrence decides, so "abab" does not end with the match
	assert.Equal(t, []string{"ab", "zab"}, texts(NewRecord(items()).Seek("s", SeekLike, "%ab")))
	assert.Equal(t, []string{"xaby", "abz", "zab", "abab"}, texts(NewRecord(items()).Seek("s", SeekNotLike, "ab")))
	assert.Equal(t, []string{"ab", "xaby", "abz", "zab", "abab"}, texts(NewRecord(items()).Seek("s", SeekLike, "%")))
	assert.Empty(t, texts(NewRecord(items()).Seek("s", SeekNotLike, "%")))
}

func TestRecord_SeekLikeLonePercentMatchesEverything(t *testing.T) {
	items := func() []Item {
		return []Item{{"n": String("abc")}, {"n": String("")}, {"n": String("x")}}
	}
	assert.Equal(t, 3, NewRecord(items()).Seek("n", SeekLike, "%").Len())
	assert.Equal(t, 0, NewRecord(items()).Seek("n", SeekNotLike, "%").Len())
	assert.Equal(t, 3, NewRecord(items()).Seek("n", SeekLike, "%%").Len())
}

func TestRecord_SeekIgnoresUnknownAction(t *testing.T) {
	r := NewRecord(people())
	assert.Same(t, r, r.Seek("age", "between", 3))
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, 4, r.Seek("", SeekEq, 3).Len())
}

func TestRecord_SortAscDesc(t *testing.T) {
	asc := NewRecord(people()).Sort("age", "asc")
	desc := NewRecord(people()).Sort("age", "Desc")
	assert.Equal(t, []string{"Dave", "bob", "Alice", "Carol"}, names(asc.GetArray()))

	rev := names(asc.GetArray())
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	assert.Equal(t, rev, names(desc.GetArray()))
}

func TestRecord_SortIsCaseSensitiveOnBytes(t *testing.T) {
	r := NewRecord(people()).Sort("name", "asc")
	// uppercase letters order before lowercase ones
	assert.Equal(t, []string{"Alice", "Carol", "Dave", "bob"}, names(r.GetArray()))
}

func TestRecord_SortStableOnTies(t *testing.T) {
	r := NewRecord(people()).Sort("dept", "asc")
	assert.Equal(t, []string{"bob", "Dave", "Alice", "Carol"}, names(r.GetArray()))
}

func TestRecord_SortUnknownActionIsNoop(t *testing.T) {
	r := NewRecord(people()).Sort("age", "up")
	assert.Equal(t, []string{"Alice", "bob", "Carol", "Dave"}, names(r.GetArray()))
}

func TestRecord_OrderBy(t *testing.T) {
	r := NewRecord(people()).OrderBy("dept ASC, age DESC")
	assert.Equal(t, []string{"bob", "Dave", "Carol", "Alice"}, names(r.GetArray()))
}

func TestRecord_Map(t *testing.T) {
	r := NewRecord(people()).Map(MapSpec{
		"debug": From("name"),
		"who":   From("name"),
		"years": Fmt("age", "0.0"),
		"upper": Fn(func(src Item) Scalar { return String(strings.ToUpper(src["name"].Text())) }),
		"next":  MapExpr("age + 1"),
		"none":  nil,
	})
	require.NoError(t, r.Err())
	first := r.GetSingle()
	assert.NotContains(t, first, "debug")
	assert.NotContains(t, first, "none")
	assert.Equal(t, String("Alice"), first["who"])
	assert.Equal(t, String("30.0"), first["years"])
	assert.Equal(t, String("ALICE"), first["upper"])
	assert.True(t, Equal(Int(31), first["next"]))
	assert.Len(t, first, 4)
}

func TestRecord_MapNeverEmitsDebug(t *testing.T) {
	r := NewRecord([]Item{{"debug": String("x"), "a": Int(1)}}).Map(MapSpec{"debug": From("debug"), "a": From("a")})
	for _, it := range r.GetArray() {
		assert.NotContains(t, it, DebugKey)
	}
}

func TestRecord_MapFormatsOnlyNumbersAndDates(t *testing.T) {
	r := NewRecord([]Item{{"v": String("abc")}, {"v": Null}, {"v": Int(5)}}).Map(MapSpec{"v": Fmt("v", "000")})
	arr := r.GetArray()
	assert.Equal(t, String("abc"), arr[0]["v"])
	assert.True(t, arr[1]["v"].IsNull())
	assert.Equal(t, String("005"), arr[2]["v"])
}

func TestRecord_MapFmtRoundingIsCaseInsensitive(t *testing.T) {
	r := NewRecord([]Item{{"v": Float(2.5)}}).Map(MapSpec{"v": Fmt("v", "0", "half_up")})
	require.NoError(t, r.Err())
	assert.Equal(t, String("3"), r.GetValue("v"))
}

func TestRecord_GetArrayCopiesUnsupportedValues(t *testing.T) {
	tags := []string{"a", "b"}
	r := NewRecord([]Item{{"tags": MustScalar(tags)}})

	arr := r.GetArray()
	tags[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, arr[0]["tags"].Raw())
}

func TestRecord_Select(t *testing.T) {
	r := NewRecord(people()).Select(`age >= 25 && dept == "Sales"`)
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"Alice", "Carol"}, names(r.GetArray()))
}

func TestRecord_ErrorIsSticky(t *testing.T) {
	r := NewRecord(people()).Select("age +")
	require.Error(t, r.Err())
	before := r.Len()
	r.Seek("dept", SeekEq, "Dev").Sort("age", "asc").Map(MapSpec{"a": From("age")})
	assert.Equal(t, before, r.Len())
	assert.Error(t, r.Err())
}

func TestRecord_ChainingReturnsSameRecord(t *testing.T) {
	r := NewRecord(people())
	out := r.Seek("dept", SeekEq, "Dev").Sort("age", "asc")
	assert.Same(t, r, out)
	assert.Equal(t, []string{"Dave", "bob"}, names(r.GetArray()))
}

func TestRecord_MarshalJSON(t *testing.T) {
	r := NewRecord([]Item{{"name": String("Alice"), "age": Int(30)}})
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Alice","age":30}]`, string(data))
}
