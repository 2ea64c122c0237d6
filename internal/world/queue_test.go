package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/meshing"
)

func TestInstantiateQueueDrains(t *testing.T) {
	s := newTestStore(t, nil)
	meshes := []*meshing.MeshBuildInfo{meshing.NewMeshBuildInfo().Build()}
	task := &ColumnInstantiateTask{Pos: coord.Column{X: 3, Z: 4}, Meshes: meshes}
	require.True(t, s.instantiate.Push(task))

	got := s.NextInstantiateTask()
	require.NotNil(t, got)
	assert.Same(t, task, got)
	assert.Zero(t, s.QueueDepths().Instantiate)
	assert.Nil(t, s.NextInstantiateTask())
}

func TestEmptyQueuesReturnNil(t *testing.T) {
	s := newTestStore(t, nil)
	assert.Nil(t, s.NextDestroyTask())
	assert.Nil(t, s.NextRenderTask())
	assert.Nil(t, s.NextUpdateTask())
	assert.Nil(t, s.NextSaveTask())
	assert.Zero(t, s.QueueDepths().Total())
}

func TestTaskQueueDeduplicatesPendingKeys(t *testing.T) {
	q := newTaskQueue(func(t *ChunkRenderTask) coord.Chunk { return t.Pos })
	assert.True(t, q.Push(&ChunkRenderTask{Pos: coord.Chunk{X: 1}}))
	assert.False(t, q.Push(&ChunkRenderTask{Pos: coord.Chunk{X: 1}}))
	assert.True(t, q.Push(&ChunkRenderTask{Pos: coord.Chunk{X: 2}}))
	assert.Equal(t, 2, q.Len())

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, coord.Chunk{X: 1}, first.Pos)
	// popped keys may be queued again
	assert.True(t, q.Push(&ChunkRenderTask{Pos: coord.Chunk{X: 1}}))
}

func TestTaskQueueWithoutKeyKeepsDuplicates(t *testing.T) {
	q := newTaskQueue[coord.Chunk, *ChunkUpdateTask](nil)
	assert.True(t, q.Push(&ChunkUpdateTask{}))
	assert.True(t, q.Push(&ChunkUpdateTask{}))
	assert.Equal(t, 2, q.Len())
	assert.False(t, q.Remove(coord.Chunk{}))
}

func TestTaskQueueRemove(t *testing.T) {
	q := newTaskQueue(func(t *ColumnDestroyTask) coord.Column { return t.Pos })
	for x := range 3 {
		q.Push(&ColumnDestroyTask{Pos: coord.Column{X: x}})
	}
	assert.True(t, q.Remove(coord.Column{X: 1}))
	assert.False(t, q.Remove(coord.Column{X: 1}))

	a, _ := q.Pop()
	b, _ := q.Pop()
	_, ok := q.Pop()
	assert.Equal(t, coord.Column{X: 0}, a.Pos)
	assert.Equal(t, coord.Column{X: 2}, b.Pos)
	assert.False(t, ok)
}
