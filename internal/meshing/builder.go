package meshing

import (
	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/profiling"
	"github.com/shuidong/block-game/internal/registry"
)

// Source resolves blocks and light relative to a chunk. Local coordinates may
// fall outside the chunk; implementations resolve them through world coordinates
// and return def for unloaded cells.
type Source interface {
	BlockAt(chunk coord.Chunk, x, y, z int, def registry.BlockID) registry.BlockID
	LightAt(chunk coord.Chunk, x, y, z int, def uint8) uint8
}

// Options controls a mesh build.
type Options struct {
	ChunkSize      int
	SmoothLighting bool
}

type builder struct {
	src  Source
	pos  coord.Chunk
	opts Options
	mesh *MeshBuildInfo
}

// BuildChunk walks every cell of the chunk and emits faces through each block's renderer.
// The result is built and safe to hand to another goroutine.
func BuildChunk(src Source, pos coord.Chunk, opts Options) *MeshBuildInfo {
	defer profiling.Track("meshing.BuildChunk")()

	b := &builder{src: src, pos: pos, opts: opts, mesh: NewMeshBuildInfo()}
	n := opts.ChunkSize
	for x := range n {
		for y := range n {
			for z := range n {
				id := src.BlockAt(pos, x, y, z, registry.BlockAir)
				info := registry.Get(id).Render
				switch info.Kind {
				case registry.RenderFullBlock:
					b.renderFullBlock(x, y, z, info)
				case registry.RenderFluid:
					b.renderFluid(id, x, y, z, info)
				case registry.RenderPartialBlock:
					b.renderPartialBlock(id, x, y, z, info)
				}
			}
		}
	}
	return b.mesh.Build()
}
