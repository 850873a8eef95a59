package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/verdict/internal/ir"
)

type point struct {
	x, y float64
}

func TestCompare_Reflexive(t *testing.T) {
	values := []any{
		nil,
		"",
		"text",
		0,
		int64(-7),
		true,
		[]string{"1,2,3,4,5"},
		[]any{1, "a", nil},
		map[string]any{"a": 1, "b": []any{true}},
		ir.NewObject(ir.O("k", ir.String("v"))),
		point{1.5, 2.5},
		math.NaN(),
	}

	for _, v := range values {
		assert.True(t, Compare(v, v), "Compare(%#v, itself)", v)
	}
}

func TestCompare_Symmetric(t *testing.T) {
	values := []any{
		nil, "", "1", 1, int8(1), uint(1), 1.0, true,
		[]int{1}, []string{"1"}, map[string]int{"a": 1},
		point{1, 2}, point{2, 1}, 2.5,
	}

	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, Compare(a, b), Compare(b, a), "Compare(%#v, %#v)", a, b)
		}
	}
}

func TestCompare_Normalization(t *testing.T) {
	assert.True(t, Compare(uint8(3), 3))
	assert.True(t, Compare(3.0, 3))
	assert.True(t, Compare(map[string]int{"a": 1}, map[string]any{"a": int64(1)}))
	assert.False(t, Compare("3", 3))
	assert.False(t, Compare([]any{1, 2}, []any{2, 1}))
	assert.False(t, Compare(point{1, 2}, point{2, 1}))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, `""`, Describe(""))
	assert.Equal(t, `["1,2,3,4,5"]`, Describe([]string{"1,2,3,4,5"}))
	assert.Equal(t, `null`, Describe(nil))
	assert.Equal(t, `{"a":1}`, Describe(map[string]any{"a": 1}))
	assert.Equal(t, `harness.point{x:1.5, y:2}`, Describe(point{1.5, 2}))
}

func TestDiff(t *testing.T) {
	t.Run("single line strings", func(t *testing.T) {
		assert.Empty(t, Diff("a", "b"))
	})

	t.Run("multi-line strings", func(t *testing.T) {
		diff := Diff("one\ntwo\nthree\n", "one\n2\nthree\n")
		assert.Contains(t, diff, "--- expected")
		assert.Contains(t, diff, "+++ actual")
		assert.Contains(t, diff, "-two")
		assert.Contains(t, diff, "+2")
	})

	t.Run("ir values", func(t *testing.T) {
		assert.Empty(t, Diff([]any{1}, []any{2}))
	})

	t.Run("structs", func(t *testing.T) {
		diff := Diff(point{1, 2}, point{1, 3})
		assert.Contains(t, diff, "y:")
	})
}
