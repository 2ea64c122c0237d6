package physics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuidong/block-game/internal/physics"
	"github.com/shuidong/block-game/internal/registry"
)

type blocks map[[3]int]registry.BlockID

func (b blocks) GetBlock(x, y, z int, def registry.BlockID) registry.BlockID {
	if id, ok := b[[3]int{x, y, z}]; ok {
		return id
	}
	return def
}

func TestRaycast(t *testing.T) {
	w := blocks{{5, 0, 0}: registry.BlockStone}
	start := mgl32.Vec3{0.5, 0.5, 0.5}

	result := physics.Raycast(start, mgl32.Vec3{1, 0, 0}, 0.1, 10, w)
	require.True(t, result.Hit)
	assert.Equal(t, [3]int{5, 0, 0}, result.HitPosition)
	assert.Equal(t, [3]int{4, 0, 0}, result.AdjacentPosition)
	assert.Equal(t, registry.BlockStone, result.Block)
	assert.InDelta(t, 4.5, result.Distance, 1e-4)

	// out of reach
	assert.False(t, physics.Raycast(start, mgl32.Vec3{1, 0, 0}, 0.1, 4, w).Hit)
	// wrong direction
	assert.False(t, physics.Raycast(start, mgl32.Vec3{0, 1, 0}, 0.1, 10, w).Hit)
	// zero direction
	assert.False(t, physics.Raycast(start, mgl32.Vec3{}, 0.1, 10, w).Hit)
}

func TestRaycastDiagonal(t *testing.T) {
	w := blocks{{2, 2, 2}: registry.BlockDirt}
	result := physics.Raycast(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 1, 1}, 0.1, 10, w)
	require.True(t, result.Hit)
	assert.Equal(t, [3]int{2, 2, 2}, result.HitPosition)
}

func TestRaycastNegativeCoordinates(t *testing.T) {
	w := blocks{{-3, -1, 0}: registry.BlockSand}
	result := physics.Raycast(mgl32.Vec3{0.5, -0.5, 0.5}, mgl32.Vec3{-1, 0, 0}, 0, 10, w)
	require.True(t, result.Hit)
	assert.Equal(t, [3]int{-3, -1, 0}, result.HitPosition)
	assert.Equal(t, [3]int{-2, -1, 0}, result.AdjacentPosition)
	assert.InDelta(t, 2.5, result.Distance, 1e-4)
}

func TestRaycastPassesThroughWater(t *testing.T) {
	w := blocks{
		{0, 2, 0}: registry.Water(3),
		{0, 1, 0}: registry.BlockGrass,
	}
	result := physics.Raycast(mgl32.Vec3{0.5, 4.5, 0.5}, mgl32.Vec3{0, -1, 0}, 0, 10, w)
	require.True(t, result.Hit)
	assert.Equal(t, [3]int{0, 1, 0}, result.HitPosition)
	assert.Equal(t, [3]int{0, 2, 0}, result.AdjacentPosition)
}

func TestGroundLevel(t *testing.T) {
	w := blocks{
		{0, 0, 0}: registry.BlockBedrock,
		{0, 4, 0}: registry.BlockGrass,
		{0, 5, 0}: registry.Water(9),
	}
	assert.Equal(t, 5, physics.GroundLevel(w, 0, 0, 20))
	assert.Equal(t, 1, physics.GroundLevel(w, 0, 0, 3))
	assert.Equal(t, -1, physics.GroundLevel(w, 1, 1, 20))
}

func BenchmarkRaycast(b *testing.B) {
	w := blocks{}
	for y := range 16 {
		for z := range 16 {
			w[[3]int{32, y, z}] = registry.BlockStone
		}
	}
	start := mgl32.Vec3{0.5, 8.5, 8.5}
	dir := mgl32.Vec3{1, 0.05, 0.02}
	for b.Loop() {
		physics.Raycast(start, dir, 0, 64, w)
	}
}
