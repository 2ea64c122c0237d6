package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/shuidong/block-game/internal/registry"
)

const tileUnit = float32(1) / registry.AtlasSize

func tileOrigin(tile uint8) (float32, float32) {
	u, v := registry.TileLocation(tile)
	return float32(u) * tileUnit, float32(v) * tileUnit
}

// corner selects a cube vertex by sign per axis: x east, y top, z north.
type corner [3]float32

var (
	tNW = corner{-1, 1, 1}
	tNE = corner{1, 1, 1}
	tSE = corner{1, 1, -1}
	tSW = corner{-1, 1, -1}
	bNW = corner{-1, -1, 1}
	bNE = corner{1, -1, 1}
	bSE = corner{1, -1, -1}
	bSW = corner{-1, -1, -1}
)

// faceSpec describes one cube face.
//
// Light is sampled on a 3x3 grid in the plane of the neighbouring cell; sample(r, c)
// maps a grid cell to an offset from the block. Each vertex averages four grid cells.
// flip names the corner order handed to the diagonal test.
type faceSpec struct {
	face    registry.BlockFace
	dir     [3]int
	verts   [4]corner
	sample  func(r, c int) (dx, dy, dz int)
	corners [4][4]int
	flip    [4]int
}

var (
	cornersA = [4]int{0, 1, 3, 4}
	cornersB = [4]int{1, 2, 4, 5}
	cornersC = [4]int{4, 5, 7, 8}
	cornersD = [4]int{3, 4, 6, 7}
)

var faceSpecs = [6]faceSpec{
	{
		face:    registry.FaceTop,
		dir:     [3]int{0, 1, 0},
		verts:   [4]corner{tNW, tNE, tSE, tSW},
		sample:  func(r, c int) (int, int, int) { return c - 1, 1, 1 - r },
		corners: [4][4]int{cornersA, cornersB, cornersC, cornersD},
		flip:    [4]int{0, 1, 2, 3},
	},
	{
		face:    registry.FaceBottom,
		dir:     [3]int{0, -1, 0},
		verts:   [4]corner{bSW, bSE, bNE, bNW},
		sample:  func(r, c int) (int, int, int) { return c - 1, -1, 1 - r },
		corners: [4][4]int{cornersD, cornersC, cornersB, cornersA},
		flip:    [4]int{3, 2, 1, 0},
	},
	{
		face:    registry.FaceEast,
		dir:     [3]int{1, 0, 0},
		verts:   [4]corner{bSE, tSE, tNE, bNE},
		sample:  func(r, c int) (int, int, int) { return 1, c - 1, 1 - r },
		corners: [4][4]int{cornersD, cornersC, cornersB, cornersA},
		flip:    [4]int{3, 2, 1, 0},
	},
	{
		face:    registry.FaceNorth,
		dir:     [3]int{0, 0, 1},
		verts:   [4]corner{bNE, tNE, tNW, bNW},
		sample:  func(r, c int) (int, int, int) { return c - 1, 1 - r, 1 },
		corners: [4][4]int{cornersC, cornersB, cornersA, cornersD},
		flip:    [4]int{2, 1, 0, 3},
	},
	{
		face:    registry.FaceWest,
		dir:     [3]int{-1, 0, 0},
		verts:   [4]corner{bNW, tNW, tSW, bSW},
		sample:  func(r, c int) (int, int, int) { return -1, c - 1, 1 - r },
		corners: [4][4]int{cornersA, cornersB, cornersC, cornersD},
		flip:    [4]int{0, 1, 2, 3},
	},
	{
		face:    registry.FaceSouth,
		dir:     [3]int{0, 0, -1},
		verts:   [4]corner{bSW, tSW, tSE, bSE},
		sample:  func(r, c int) (int, int, int) { return c - 1, 1 - r, -1 },
		corners: [4][4]int{cornersD, cornersA, cornersB, cornersC},
		flip:    [4]int{1, 2, 3, 0},
	},
}

func lightAverage(a, b, c, d uint8) uint8 {
	return uint8((int(a) + int(b) + int(c) + int(d)) / 4)
}

// flipTriangles picks the diagonal that splits the brighter pair.
func flipTriangles(a, b, c, d uint8) bool {
	return int(a)+int(c) < int(b)+int(d)
}

// box is the drawn extent of a block inside its cell.
type box struct {
	center, size mgl32.Vec3
}

var unitBox = box{center: mgl32.Vec3{0.5, 0.5, 0.5}, size: mgl32.Vec3{1, 1, 1}}

func (b box) vertex(x, y, z int, c corner) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(x) + b.center[0] + c[0]*b.size[0]/2,
		float32(y) + b.center[1] + c[1]*b.size[1]/2,
		float32(z) + b.center[2] + c[2]*b.size[2]/2,
	}
}

// emitFace samples light around the face and pushes it into dst.
func (b *builder) emitFace(dst *SingleMeshBuildInfo, spec *faceSpec, x, y, z int, bx box, info registry.RenderInfo) {
	var l [9]uint8
	var corners [4]uint8
	flip := false

	if b.opts.SmoothLighting {
		for r := range 3 {
			for c := range 3 {
				dx, dy, dz := spec.sample(r, c)
				l[3*r+c] = b.src.LightAt(b.pos, x+dx, y+dy, z+dz, 0)
			}
		}
		for i, idx := range spec.corners {
			corners[i] = lightAverage(l[idx[0]], l[idx[1]], l[idx[2]], l[idx[3]])
		}
		fo := spec.flip
		flip = flipTriangles(corners[fo[0]], corners[fo[1]], corners[fo[2]], corners[fo[3]])
	} else {
		center := b.src.LightAt(b.pos, x+spec.dir[0], y+spec.dir[1], z+spec.dir[2], 0)
		corners = [4]uint8{center, center, center, center}
	}

	var verts [4]mgl32.Vec3
	for i, c := range spec.verts {
		verts[i] = bx.vertex(x, y, z, c)
	}
	dst.pushFace(verts, info.Textures.Tile(spec.face), corners, flip, info.Color)
}

// renderFullBlock draws every face whose neighbour is not opaque.
func (b *builder) renderFullBlock(x, y, z int, info registry.RenderInfo) {
	for i := range faceSpecs {
		spec := &faceSpecs[i]
		n := b.src.BlockAt(b.pos, x+spec.dir[0], y+spec.dir[1], z+spec.dir[2], registry.BlockDirt)
		if registry.IsOpaque(n) {
			continue
		}
		b.emitFace(&b.mesh.Opaque, spec, x, y, z, unitBox, info)
	}
}

func boxOf(bounds registry.AABB) box {
	return box{center: bounds.Min.Add(bounds.Max).Mul(0.5), size: bounds.Max.Sub(bounds.Min)}
}

// renderPartialBlock draws the block's bounds. A face is culled only when it
// lies on the cell boundary against an opaque neighbour.
func (b *builder) renderPartialBlock(id registry.BlockID, x, y, z int, info registry.RenderInfo) {
	bounds := registry.Get(id).Bounds
	bx := boxOf(bounds)
	for i := range faceSpecs {
		spec := &faceSpecs[i]
		if onBoundary(bounds, spec.dir) {
			n := b.src.BlockAt(b.pos, x+spec.dir[0], y+spec.dir[1], z+spec.dir[2], registry.BlockDirt)
			if registry.IsOpaque(n) {
				continue
			}
		}
		b.emitFace(&b.mesh.Opaque, spec, x, y, z, bx, info)
	}
}

func onBoundary(bounds registry.AABB, dir [3]int) bool {
	for axis, d := range dir {
		switch {
		case d > 0:
			return bounds.Max[axis] >= 1
		case d < 0:
			return bounds.Min[axis] <= 0
		}
	}
	return false
}
