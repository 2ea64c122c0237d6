package world

import (
	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/meshing"
)

// ColumnInstantiateTask hands a newly rendered column to the consumer, one mesh per chunk from the bottom up.
type ColumnInstantiateTask struct {
	Pos    coord.Column
	Meshes []*meshing.MeshBuildInfo
}

// ColumnDestroyTask tells the consumer to drop a column it was given earlier.
type ColumnDestroyTask struct {
	Pos coord.Column
}

// ChunkRenderTask asks a render worker to rebuild one chunk's mesh.
type ChunkRenderTask struct {
	Pos coord.Chunk
}

// ChunkUpdateTask carries a rebuilt chunk mesh to the consumer.
type ChunkUpdateTask struct {
	Pos  coord.Chunk
	Mesh *meshing.MeshBuildInfo
}

// ColumnSaveTask asks the save worker to persist a column.
type ColumnSaveTask struct {
	Pos coord.Column
}

// QueueDepths is a snapshot of the pending task counts.
type QueueDepths struct {
	Instantiate int
	Destroy     int
	Render      int
	Update      int
	Save        int
}

func (d QueueDepths) Total() int {
	return d.Instantiate + d.Destroy + d.Render + d.Update + d.Save
}
