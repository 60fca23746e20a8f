package xlrecord

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarOf_Kinds(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		in   any
		kind Kind
	}{
		{nil, NullKind},
		{"x", StringKind},
		{true, BoolKind},
		{int8(1), NumberKind},
		{int16(1), NumberKind},
		{int32(1), NumberKind},
		{int64(1), NumberKind},
		{uint64(1), NumberKind},
		{float32(1.5), NumberKind},
		{2.5, NumberKind},
		{decimal.RequireFromString("1.10"), NumberKind},
		{big.NewInt(7), NumberKind},
		{json.Number("12.5"), NumberKind},
		{now, DateKind},
		{String("s"), StringKind},
	}
	for _, tt := range tests {
		s, ok := ScalarOf(tt.in)
		assert.True(t, ok, "%T", tt.in)
		assert.Equal(t, tt.kind, s.Kind(), "%T", tt.in)
	}
}

func TestScalarOf_Unsupported(t *testing.T) {
	type blob struct{ N int }
	s, ok := ScalarOf(blob{N: 1})
	assert.False(t, ok)
	assert.Equal(t, OtherKind, s.Kind())
	assert.Equal(t, blob{N: 1}, s.Raw())
}

func TestScalar_NumberKeepsPrecision(t *testing.T) {
	s := MustScalar(decimal.RequireFromString("12345678901234567890.123456789"))
	n, ok := s.Num()
	require.True(t, ok)
	assert.Equal(t, "12345678901234567890.123456789", n.String())
}

func TestScalar_Text(t *testing.T) {
	assert.Equal(t, "null", Null.Text())
	assert.Equal(t, "abc", String("abc").Text())
	assert.Equal(t, "30", Int(30).Text())
	assert.Equal(t, "1.5", Float(1.5).Text())
	assert.Equal(t, "true", Bool(true).Text())
	assert.Equal(t, "2024-03-01T00:00:00Z", Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).Text())
}

func TestScalar_Native(t *testing.T) {
	assert.Nil(t, Null.Native())
	assert.Equal(t, "a", String("a").Native())
	assert.Equal(t, 2.5, Float(2.5).Native())
	assert.Equal(t, true, Bool(true).Native())
}

func TestCompare_SameKind(t *testing.T) {
	c, ok := Compare(Int(1), Int(2))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(String("b"), String("a"))
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	d1 := Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	d2 := Date(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	c, ok = Compare(d1, d2)
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(Bool(true), Bool(false))
	assert.True(t, ok)
	assert.Equal(t, 1, c)
}

func TestCompare_MixedKinds(t *testing.T) {
	// numeric strings compare as numbers
	c, ok := Compare(String("10"), Int(9))
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	// non-numeric strings cannot be ordered against numbers
	_, ok = Compare(String("abc"), Int(9))
	assert.False(t, ok)

	// booleans count as 0 and 1
	c, ok = Compare(Bool(true), Int(1))
	assert.True(t, ok)
	assert.Equal(t, 0, c)

	// dates compare with numbers as epoch milliseconds
	d := Date(time.UnixMilli(1000))
	c, ok = Compare(d, Int(999))
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = Compare(Null, Int(1))
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Null, Null))
	assert.False(t, Equal(Null, String("")))
	assert.True(t, Equal(String("30"), Int(30)))
	assert.True(t, Equal(Float(1.0), Int(1)))
	assert.False(t, Equal(String("a"), String("b")))
}

func TestScalar_JSON(t *testing.T) {
	item := Item{
		"name":  String("Alice"),
		"age":   Int(30),
		"ok":    Bool(true),
		"none":  Null,
		"since": Date(time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)),
	}
	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Alice","age":30,"ok":true,"none":null,"since":"2020-05-01T00:00:00Z"}`, string(data))

	var back Item
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":1.25,"c":false,"d":null}`), &back))
	assert.Equal(t, String("x"), back["a"])
	assert.True(t, Equal(Float(1.25), back["b"]))
	assert.Equal(t, Bool(false), back["c"])
	assert.True(t, back["d"].IsNull())
}

func TestItem_CloneCopiesMutableUnsupportedValues(t *testing.T) {
	counts := map[string]int{"x": 1}
	it := Item{"counts": MustScalar(counts), "n": Int(1)}
	cp := it.Clone()
	counts["x"] = 99

	assert.Equal(t, map[string]int{"x": 1}, cp["counts"].Raw())
	assert.Equal(t, Int(1), cp["n"])
}

func TestItem_CloneIsIndependent(t *testing.T) {
	it := Item{"a": Int(1)}
	cp := it.Clone()
	cp["a"] = Int(2)
	cp["b"] = String("x")
	assert.Equal(t, Int(1), it["a"])
	assert.NotContains(t, it, "b")
}
