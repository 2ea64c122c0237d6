package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/shuidong/block-game/internal/profiling"
	"github.com/shuidong/block-game/internal/registry"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 8.0
)

// BlockSource is the read side of a block world. Cell (x, y, z) spans
// [x, x+1) on every axis.
type BlockSource interface {
	GetBlock(x, y, z int, def registry.BlockID) registry.BlockID
}

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition      [3]int
	AdjacentPosition [3]int
	Block            registry.BlockID
	Distance         float32
	Hit              bool
}

// Solid reports whether a ray stops at id: anything but air and water.
func Solid(id registry.BlockID) bool {
	if _, water := registry.WaterLevel(id); water {
		return false
	}
	return id != registry.BlockAir
}

// Raycast walks the cells along the ray and returns the first solid one
// between minDist and maxDist. Unloaded cells read as air.
func Raycast(start, direction mgl32.Vec3, minDist, maxDist float32, src BlockSource) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	if direction.Len() == 0 {
		return RaycastResult{}
	}
	dir := direction.Normalize()

	var cellPos, step [3]int
	var tMax, tDelta [3]float32
	for i := range 3 {
		cellPos[i] = int(math.Floor(float64(start[i])))
		switch {
		case dir[i] > 0:
			step[i] = 1
			tDelta[i] = 1 / dir[i]
			tMax[i] = (float32(cellPos[i]+1) - start[i]) / dir[i]
		case dir[i] < 0:
			step[i] = -1
			tDelta[i] = -1 / dir[i]
			tMax[i] = (float32(cellPos[i]) - start[i]) / dir[i]
		default:
			tDelta[i] = float32(math.Inf(1))
			tMax[i] = float32(math.Inf(1))
		}
	}

	last := cellPos
	dist := float32(0)
	for dist <= maxDist {
		if dist >= minDist {
			id := src.GetBlock(cellPos[0], cellPos[1], cellPos[2], registry.BlockAir)
			if Solid(id) {
				return RaycastResult{
					HitPosition:      cellPos,
					AdjacentPosition: last,
					Block:            id,
					Distance:         dist,
					Hit:              true,
				}
			}
		}
		last = cellPos

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		dist = tMax[axis]
		tMax[axis] += tDelta[axis]
		cellPos[axis] += step[axis]
	}
	return RaycastResult{}
}
