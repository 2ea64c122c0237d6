package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/shuidong/block-game/internal/registry"
)

// FluidSurface scales the fill amount to the drawn height so a full cell stays below the block above.
const FluidSurface = 0.85

// renderFluid draws a shortened cube into the transparent pass,
// with faces toward every cell that is not the same fluid.
func (b *builder) renderFluid(id registry.BlockID, x, y, z int, info registry.RenderInfo) {
	height := info.Amount * FluidSurface
	bx := box{
		center: mgl32.Vec3{0.5, height * 0.5, 0.5},
		size:   mgl32.Vec3{1, height, 1},
	}
	for i := range faceSpecs {
		spec := &faceSpecs[i]
		n := b.src.BlockAt(b.pos, x+spec.dir[0], y+spec.dir[1], z+spec.dir[2], registry.BlockDirt)
		if n == id {
			continue
		}
		b.emitFace(&b.mesh.Transparent, spec, x, y, z, bx, info)
	}
}
