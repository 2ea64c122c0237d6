package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/registry"
)

func TestNewColumnIsEmpty(t *testing.T) {
	col := NewColumn(coord.Column{X: 1, Z: -2}, testDims)
	assert.Equal(t, -1, col.MaxHeight())
	assert.Len(t, col.Data().Blocks, 8*8*16)
	assert.Equal(t, registry.BlockAir, col.Block(7, 15, 7))
	assert.False(t, col.Modified())
}

func TestColumnMaxHeightTracksWrites(t *testing.T) {
	col := NewColumn(coord.Column{}, testDims)
	col.SetBlock(1, 3, 1, registry.BlockDirt)
	col.SetBlock(2, 9, 2, registry.BlockStone)
	assert.Equal(t, 9, col.MaxHeight())

	col.SetBlock(2, 9, 2, registry.BlockAir)
	assert.Equal(t, 3, col.MaxHeight())

	col.SetBlock(1, 3, 1, registry.BlockAir)
	assert.Equal(t, -1, col.MaxHeight())
}

func TestColumnIndexPanicsOutsideBounds(t *testing.T) {
	col := NewColumn(coord.Column{}, testDims)
	assert.Panics(t, func() { col.Block(8, 0, 0) })
	assert.Panics(t, func() { col.Block(0, 16, 0) })
	assert.Panics(t, func() { col.SetLight(0, -1, 0, 3) })
}

func TestColumnLightIsClamped(t *testing.T) {
	col := NewColumn(coord.Column{}, testDims)
	col.SetLight(0, 0, 0, 200)
	assert.Equal(t, uint8(MaxLight), col.Light(0, 0, 0))
}

func TestColumnCloneIsIndependent(t *testing.T) {
	col := NewGenerator(3).Generate(TerrainMain, coord.Column{X: 2, Z: 2}, testDims)
	cp := col.Clone()
	require.True(t, col.Equal(cp))

	cp.SetBlock(0, 15, 0, registry.BlockSand)
	assert.False(t, col.Equal(cp))
	assert.Equal(t, registry.BlockAir, col.Block(0, 15, 0))
}

func TestNewColumnFromDataValidates(t *testing.T) {
	src := NewGenerator(1).Generate(TerrainFlat, coord.Column{}, testDims)
	data := src.Clone().Data()

	col, err := NewColumnFromData(src.Pos, testDims, data)
	require.NoError(t, err)
	assert.True(t, col.Equal(src))

	short := data
	short.Blocks = short.Blocks[:10]
	_, err = NewColumnFromData(src.Pos, testDims, short)
	assert.Error(t, err)

	bright := src.Clone().Data()
	bright.Light[0] = 16
	_, err = NewColumnFromData(src.Pos, testDims, bright)
	assert.Error(t, err)

	tall := src.Clone().Data()
	tall.MaxHeight = testDims.Height()
	_, err = NewColumnFromData(src.Pos, testDims, tall)
	assert.Error(t, err)
}

func TestDimensionsValidate(t *testing.T) {
	assert.NoError(t, DefaultDimensions.Validate())
	assert.Equal(t, 160, DefaultDimensions.Height())
	assert.Error(t, Dimensions{ChunkSize: 2, WorldHeight: 4}.Validate())
	assert.Error(t, Dimensions{ChunkSize: 16, WorldHeight: 0}.Validate())
	assert.Error(t, Dimensions{ChunkSize: 64, WorldHeight: 4}.Validate())
}
