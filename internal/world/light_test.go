package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/registry"
)

func TestGeneratedColumnLightMatchesReference(t *testing.T) {
	for _, terrain := range []TerrainType{TerrainFlat, TerrainMain, TerrainCave} {
		t.Run(terrain.String(), func(t *testing.T) {
			s := newTestStore(t, nil)
			s.terrain = terrain
			require.NoError(t, s.Insert(s.gen.Generate(terrain, coord.Column{X: 4, Z: -3}, s.dims)))
			requireLightInvariant(t, s, coord.Column{X: 4, Z: -3}, coord.Column{X: 4, Z: -3})
		})
	}
}

func TestStitchedColumnsMatchReference(t *testing.T) {
	s := newTestStore(t, nil)
	s.terrain = TerrainMain
	s.LoadNextColumnsInRange(coord.Column{}, coord.Column{}, 1)
	requireLightInvariant(t, s, coord.Column{X: -1, Z: -1}, coord.Column{X: 1, Z: 1})
}

func TestLightInvariantAfterEdits(t *testing.T) {
	s := newTestStore(t, nil)
	loadAround(t, s, coord.Column{})
	lo, hi := coord.Column{X: -1, Z: -1}, coord.Column{X: 1, Z: 1}
	requireLightInvariant(t, s, lo, hi)

	// shaft from the surface down to y=2
	for y := 4; y >= 2; y-- {
		s.SetBlock(3, y, 3, registry.BlockAir)
	}
	requireLightInvariant(t, s, lo, hi)

	// tunnel from the shaft bottom across the column border at x=8
	for x := 4; x <= 10; x++ {
		s.SetBlock(x, 2, 3, registry.BlockAir)
	}
	requireLightInvariant(t, s, lo, hi)

	// cap the shaft, darkening the tunnel
	s.SetBlock(3, 5, 3, registry.BlockStone)
	requireLightInvariant(t, s, lo, hi)

	// floating slab casting a shadow across a border
	for x := 5; x <= 12; x++ {
		s.SetBlock(x, 9, 5, registry.BlockDirt)
	}
	requireLightInvariant(t, s, lo, hi)

	// reopen the shaft and remove part of the slab
	s.SetBlock(3, 5, 3, registry.BlockAir)
	s.SetBlock(8, 9, 5, registry.BlockAir)
	requireLightInvariant(t, s, lo, hi)

	// water is transparent and leaves light untouched
	s.SetBlock(3, 4, 3, registry.Water(9))
	requireLightInvariant(t, s, lo, hi)
}

func TestDarkenRefloodRestoresShaft(t *testing.T) {
	s := newTestStore(t, nil)
	loadAround(t, s, coord.Column{})
	for y := 4; y >= 1; y-- {
		s.SetBlock(2, y, 2, registry.BlockAir)
	}
	s.SetBlock(3, 1, 2, registry.BlockAir)
	before := s.Column(coord.Column{}).Data().Light

	s.SetBlock(2, 3, 2, registry.BlockStone)
	assert.Equal(t, uint8(0), s.GetLight(2, 3, 2, 99))
	assert.Less(t, s.GetLight(2, 1, 2, 99), uint8(MaxLight))

	s.SetBlock(2, 3, 2, registry.BlockAir)
	assert.Equal(t, before, s.Column(coord.Column{}).Data().Light)
}

func TestFloodFillLightIsIdempotent(t *testing.T) {
	s := newTestStore(t, nil)
	loadAround(t, s, coord.Column{})
	s.SetBlock(4, 4, 4, registry.BlockAir)
	s.SetBlock(4, 3, 4, registry.BlockAir)
	s.SetBlock(5, 3, 4, registry.BlockAir)

	before := s.Column(coord.Column{})
	s.FloodFillLight(4, 3, 4, MaxLight, true)
	s.FloodFillLight(5, 3, 4, int(s.GetLight(5, 3, 4, 0)), true)
	assert.True(t, before.Equal(s.Column(coord.Column{})))
}

func TestFloodFillDarkRemovesLocalSource(t *testing.T) {
	s := newTestStore(t, nil)
	loadAround(t, s, coord.Column{})
	// sealed pocket under the surface
	for x := 2; x <= 4; x++ {
		s.SetBlock(x, 2, 2, registry.BlockAir)
	}
	before := s.Column(coord.Column{}).Data().Light

	s.FloodFillLight(2, 2, 2, 10, true)
	assert.Equal(t, uint8(10), s.GetLight(2, 2, 2, 0))
	assert.Equal(t, uint8(8), s.GetLight(4, 2, 2, 0))

	s.FloodFillDark(2, 2, 2)
	assert.Equal(t, before, s.Column(coord.Column{}).Data().Light)
}

func TestFloodLightStopsAtOpaque(t *testing.T) {
	col := NewColumn(coord.Column{}, testDims)
	for x := range 8 {
		for z := range 8 {
			col.SetBlock(x, 5, z, registry.BlockStone)
		}
	}
	floodLight(col, cell{3, 3, 3}, 6, true)

	assert.Equal(t, uint8(6), col.Light(3, 3, 3))
	assert.Equal(t, uint8(5), col.Light(3, 4, 3))
	assert.Equal(t, uint8(0), col.Light(3, 5, 3))
	assert.Equal(t, uint8(0), col.Light(3, 6, 3))
	assert.Equal(t, uint8(3), col.Light(3, 0, 3))
	assert.Equal(t, uint8(2), col.Light(3, 3, 7))
	assert.Equal(t, uint8(3), col.Light(0, 3, 3))
}

func TestCanSeeSky(t *testing.T) {
	s := newTestStore(t, nil)
	loadAround(t, s, coord.Column{})
	assert.True(t, s.CanSeeSky(1, 4, 1))
	assert.False(t, s.CanSeeSky(1, 3, 1))
	s.SetBlock(1, 12, 1, registry.BlockSand)
	assert.False(t, s.CanSeeSky(1, 4, 1))
	assert.True(t, s.CanSeeSky(1, 12, 1))
	assert.False(t, s.CanSeeSky(500, 4, 500))

	assert.False(t, s.CanSeeSky(1, -1, 1))
	assert.False(t, s.CanSeeSky(1, -5, 1))
	assert.True(t, s.CanSeeSky(1, testDims.Height(), 1))
	assert.True(t, s.CanSeeSky(1, testDims.Height()+20, 1))
	assert.False(t, s.CanSeeSky(500, testDims.Height(), 500))
}
