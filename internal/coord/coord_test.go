package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorDivAndMod(t *testing.T) {
	cases := []struct {
		a, b, div, mod int
	}{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
		{-33, 12, -3, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.div, FloorDiv(c.a, c.b), "FloorDiv(%d, %d)", c.a, c.b)
		assert.Equal(t, c.mod, Mod(c.a, c.b), "Mod(%d, %d)", c.a, c.b)
	}
}

func TestWorldToColumnRoundTrip(t *testing.T) {
	for _, size := range []int{4, 12, 16} {
		for x := -50; x <= 50; x++ {
			for _, z := range []int{-37, -1, 0, 1, 29} {
				col := WorldToColumn(x, z, size)
				lx, lz := Mod(x, size), Mod(z, size)
				require.True(t, lx >= 0 && lx < size)
				require.True(t, lz >= 0 && lz < size)

				ox, oz := col.Origin(size)
				assert.Equal(t, x, ox+lx)
				assert.Equal(t, z, oz+lz)
			}
		}
	}
}

func TestRectColumnsAndCenter(t *testing.T) {
	r := RectAround(Column{X: -2, Z: 3}, 1)
	assert.Equal(t, Column{X: -2, Z: 3}, r.Center())

	cols := r.Columns()
	require.Len(t, cols, 9)
	assert.Equal(t, Column{X: -3, Z: 2}, cols[0])
	assert.Equal(t, Column{X: -3, Z: 3}, cols[1])
	assert.True(t, r.Contains(Column{X: -1, Z: 4}))
	assert.False(t, r.Contains(Column{X: 0, Z: 3}))

	assert.True(t, Rect{Min: Column{X: 1}, Max: Column{X: 0}}.Empty())
	assert.Nil(t, Rect{Min: Column{X: 1}, Max: Column{X: 0}}.Columns())
}
