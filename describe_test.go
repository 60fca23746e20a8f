package xlrecord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_SingleRow(t *testing.T) {
	output, err := Describe(Single(RowTemplate{
		"name":  Col("A"),
		"age":   ColFormat("B", "0"),
		"title": Cell("F1"),
		"debug": Col("Z"),
	}), 5)
	require.NoError(t, err)

	assert.Equal(t, "Mapping: 1 row(s) per record, record at row 5\n"+
		"  row 5 (template 1)\n"+
		"    age: B5 format \"0\" HALF_EVEN\n"+
		"    name: A5\n"+
		"    title: F1 (fixed)\n", output)
}

func TestDescribe_MultiRowAndComputed(t *testing.T) {
	output, err := Describe(Rows(
		RowTemplate{"name": Col("A")},
		RowTemplate{
			"mail": Col("A"),
			"seq":  Expr("row - 1"),
			"n":    Computed(func(row int) (Scalar, error) { return Int(int64(row)), nil }),
		},
	), 2)
	require.NoError(t, err)

	assert.Contains(t, output, "Mapping: 2 row(s) per record")
	assert.Contains(t, output, "  row 3 (template 2)")
	assert.Contains(t, output, "    mail: A3")
	assert.Contains(t, output, `    seq: expr "row - 1"`)
	assert.Contains(t, output, "    n: computed")
}

func TestDescribe_InvalidColumn(t *testing.T) {
	_, err := Describe(Single(RowTemplate{"a": Col("?")}), 1)
	assert.ErrorIs(t, err, ErrInvalidReference)
}
